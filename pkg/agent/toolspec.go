package agent

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared/constant"
)

const (
	toolSearchWeb           = "search_web"
	toolFetchURL            = "fetch_url"
	toolRenderURL           = "render_url"
	toolExtractReference    = "extract_reference"
	toolExtractSearchSchema = "extract_search_schema"
	toolBuildURL            = "build_url"
)

func functionTool(name, description string, parameters map[string]any) openai.ChatCompletionToolUnionParam {
	return openai.ChatCompletionToolUnionParam{
		OfFunction: &openai.ChatCompletionFunctionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        name,
				Description: openai.String(description),
				Parameters:  parameters,
			},
			Type: constant.ValueOf[constant.Function](),
		},
	}
}

func (a *Agent) toolDefinitions() []openai.ChatCompletionToolUnionParam {
	tools := []openai.ChatCompletionToolUnionParam{
		functionTool(
			toolSearchWeb,
			"Search the web for information. Use this first to find relevant URLs. "+
				"For finding products on a specific site, use 'site:domain.com keywords' format "+
				"(e.g., 'site:rozetka.ua iPhone 15').",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Search query string. Use 'site:domain.com keywords' to search within a specific website.",
					},
					"count": map[string]any{
						"type":        "integer",
						"description": "Number of results to return (default: 5, max: 10)",
						"default":     5,
						"minimum":     1,
						"maximum":     a.cfg.MaxSearchCount,
					},
				},
				"required": []string{"query"},
			},
		),
		functionTool(
			toolFetchURL,
			"Fetch and extract text content from a URL. Use this after search_web to get page content. "+
				"Use this to verify product pages (fast). For JavaScript-heavy listing pages, use render_url instead.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "URL to fetch",
					},
				},
				"required": []string{"url"},
			},
		),
		functionTool(
			toolExtractReference,
			"Fetch a reference product page and extract its attributes (title, material, stones, "+
				"brand, collection keywords, price range). Use this in phase 1 on the user's reference URL.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "Reference product URL to analyze",
					},
				},
				"required": []string{"url"},
			},
		),
		functionTool(
			toolRenderURL,
			"Render a URL using a browser (for JavaScript-heavy pages). Use this for listing/category pages "+
				"that require JavaScript. Returns product candidate links extracted from the DOM. "+
				"Only use if fetch_url fails or returns empty content.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "URL to render",
					},
				},
				"required": []string{"url"},
			},
		),
	}
	if a.cfg.ExtendedTools {
		tools = append(tools,
			functionTool(
				toolExtractSearchSchema,
				"Extract search form schema from a page (form action, field names, select options). "+
					"Use this to understand how to construct search URLs.",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"url": map[string]any{
							"type":        "string",
							"description": "URL of page containing search form (usually homepage or search page)",
						},
					},
					"required": []string{"url"},
				},
			),
			functionTool(
				toolBuildURL,
				"Construct a URL by combining base_url with query parameters. "+
					"Use this to build search/listing URLs from extract_search_schema results.",
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"base_url": map[string]any{
							"type":        "string",
							"description": "Base URL (e.g., form action from extract_search_schema)",
						},
						"params": map[string]any{
							"type":        "object",
							"description": "Query parameters as key-value pairs. Values can be strings or arrays of strings for repeated keys.",
						},
					},
					"required": []string{"base_url", "params"},
				},
			),
		)
	}
	return tools
}

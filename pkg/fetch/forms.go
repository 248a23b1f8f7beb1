package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagescout/pagescout/pkg/urlutil"
)

// Caps keep a schema dump from flooding the model with one giant form.
const (
	maxFormsExtracted    = 3
	maxSelectOptions     = 50
	maxFormFields        = 50
	truncatedInputFields = 30
	truncatedSelects     = 20
	maxLabelChars        = 100
)

// FormInput is a named input or textarea field.
type FormInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SelectOption is one option of a select field.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormSelect is a named select field with its options.
type FormSelect struct {
	Name    string         `json:"name"`
	Options []SelectOption `json:"options"`
}

// Form describes one search form: where it submits and what it accepts.
// Hints map field names to their placeholder, aria-label, or label text.
type Form struct {
	Action  string            `json:"action"`
	Method  string            `json:"method"`
	Inputs  []FormInput       `json:"inputs"`
	Selects []FormSelect      `json:"selects"`
	Hints   map[string]string `json:"hints,omitempty"`
}

// ExtractForms pulls up to three form schemas from a page so a search or
// filter URL can be constructed from the action and field names.
func ExtractForms(html, baseURL string) []Form {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var forms []Form
	doc.Find("form").EachWithBreak(func(i int, node *goquery.Selection) bool {
		if i >= maxFormsExtracted {
			return false
		}
		forms = append(forms, extractForm(node, baseURL))
		return true
	})
	return forms
}

func extractForm(node *goquery.Selection, baseURL string) Form {
	action := baseURL
	if raw := strings.TrimSpace(node.AttrOr("action", "")); raw != "" {
		if resolved, ok := urlutil.Resolve(baseURL, raw); ok {
			action = resolved
		}
	}

	form := Form{
		Action: action,
		Method: strings.ToUpper(firstNonEmpty(node.AttrOr("method", ""), "GET")),
		Hints:  make(map[string]string),
	}

	node.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
		name := field.AttrOr("name", "")
		if name == "" {
			return
		}
		switch goquery.NodeName(field) {
		case "input":
			form.Inputs = append(form.Inputs, FormInput{
				Name: name,
				Type: firstNonEmpty(strings.ToLower(field.AttrOr("type", "")), "text"),
			})
			if hint := firstNonEmpty(field.AttrOr("placeholder", ""), field.AttrOr("aria-label", "")); hint != "" {
				form.Hints[name] = clipLabel(hint)
			}
		case "select":
			var options []SelectOption
			field.Find("option").EachWithBreak(func(_ int, option *goquery.Selection) bool {
				value := option.AttrOr("value", "")
				label := strings.TrimSpace(option.Text())
				if value != "" || label != "" {
					options = append(options, SelectOption{Value: value, Label: clipLabel(label)})
				}
				return len(options) < maxSelectOptions
			})
			form.Selects = append(form.Selects, FormSelect{Name: name, Options: options})
		case "textarea":
			form.Inputs = append(form.Inputs, FormInput{Name: name, Type: "textarea"})
		}
	})

	node.Find("label[for]").Each(func(_ int, label *goquery.Selection) {
		target := label.AttrOr("for", "")
		text := strings.TrimSpace(label.Text())
		if target != "" && text != "" {
			form.Hints[target] = clipLabel(text)
		}
	})

	if len(form.Inputs)+len(form.Selects) > maxFormFields {
		if len(form.Inputs) > truncatedInputFields {
			form.Inputs = form.Inputs[:truncatedInputFields]
		}
		if len(form.Selects) > truncatedSelects {
			form.Selects = form.Selects[:truncatedSelects]
		}
	}
	if len(form.Hints) == 0 {
		form.Hints = nil
	}
	return form
}

func (f Form) FieldCount() int {
	return len(f.Inputs) + len(f.Selects)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func clipLabel(s string) string {
	if len(s) <= maxLabelChars {
		return s
	}
	return s[:maxLabelChars]
}

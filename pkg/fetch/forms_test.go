package fetch

import "testing"

const searchFormHTML = `<html><body>
<form action="/search" method="get">
  <input type="text" name="q" placeholder="Search products">
  <select name="category">
    <option value="">All</option>
    <option value="rings">Rings</option>
    <option value="earrings">Earrings</option>
  </select>
  <label for="q">Keywords</label>
  <input type="submit" value="Go">
</form>
<form action="https://auth.example.com/login" method="POST">
  <input type="email" name="email">
  <input type="password" name="password">
</form>
</body></html>`

func TestExtractForms(t *testing.T) {
	forms := ExtractForms(searchFormHTML, "https://shop.example.com/")
	if len(forms) != 2 {
		t.Fatalf("got %d forms, want 2", len(forms))
	}

	search := forms[0]
	if search.Action != "https://shop.example.com/search" {
		t.Fatalf("action = %q, want resolved /search", search.Action)
	}
	if search.Method != "GET" {
		t.Fatalf("method = %q, want GET", search.Method)
	}
	if len(search.Inputs) != 1 || search.Inputs[0].Name != "q" || search.Inputs[0].Type != "text" {
		t.Fatalf("inputs = %+v, want single text input q", search.Inputs)
	}
	if len(search.Selects) != 1 || search.Selects[0].Name != "category" {
		t.Fatalf("selects = %+v, want single select category", search.Selects)
	}
	if got := len(search.Selects[0].Options); got != 3 {
		t.Fatalf("got %d options, want 3", got)
	}
	// The label overrides the placeholder hint for the same field.
	if search.Hints["q"] != "Keywords" {
		t.Fatalf("hint for q = %q, want label text", search.Hints["q"])
	}

	login := forms[1]
	if login.Method != "POST" {
		t.Fatalf("method = %q, want POST", login.Method)
	}
	if login.FieldCount() != 2 {
		t.Fatalf("field count = %d, want 2", login.FieldCount())
	}
}

func TestExtractFormsMissingAction(t *testing.T) {
	forms := ExtractForms(`<form><input name="q"></form>`, "https://shop.example.com/find")
	if len(forms) != 1 {
		t.Fatalf("got %d forms, want 1", len(forms))
	}
	if forms[0].Action != "https://shop.example.com/find" {
		t.Fatalf("action = %q, want page URL fallback", forms[0].Action)
	}
}

func TestExtractFormsEmptyHTML(t *testing.T) {
	if forms := ExtractForms("", "https://shop.example.com/"); forms != nil {
		t.Fatalf("got %+v, want nil", forms)
	}
}

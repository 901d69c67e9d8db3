package handler

import (
	"fmt"
	"html"

	"github.com/artpar/prism/core/schema"
)

// Render produces the HTML form control for a field with its current
// value pre-filled. Unknown kinds render as a plain text input.
func (d *Dispatcher) Render(f *schema.SchemaField, value any) string {
	fn, ok := d.form[f.RenderKind()]
	if !ok {
		fn = formText
	}
	return fn(f, value)
}

func registerForm(d *Dispatcher) {
	for _, k := range []schema.Kind{
		schema.KindDefault, schema.KindChar, schema.KindURL,
	} {
		d.form[k] = formText
	}

	d.form[schema.KindText] = formTextarea
	d.form[schema.KindInt] = formInput("number")
	d.form[schema.KindFloat] = formInput("number")
	d.form[schema.KindDecimal] = formInput("number")
	d.form[schema.KindBool] = formCheckbox
	d.form[schema.KindDate] = formInput("date")
	d.form[schema.KindTime] = formInput("time")
	d.form[schema.KindDateTime] = formInput("datetime-local")
	d.form[schema.KindFile] = formFile
	d.form[schema.KindToOne] = formSelect
	d.form[schema.KindGenericToOne] = formSelect
	d.form[schema.KindToMany] = formSelectMulti
	d.form[schema.KindReverseToMany] = formSelectMulti
}

func formText(f *schema.SchemaField, value any) string {
	return fmt.Sprintf("<input type='text' name='%s' value='%s'>",
		html.EscapeString(f.OutputKey()), escapeValue(value))
}

func formTextarea(f *schema.SchemaField, value any) string {
	return fmt.Sprintf("<textarea name='%s'>%s</textarea>",
		html.EscapeString(f.OutputKey()), escapeValue(value))
}

func formInput(inputType string) FormFunc {
	return func(f *schema.SchemaField, value any) string {
		return fmt.Sprintf("<input type='%s' name='%s' value='%s'>",
			inputType, html.EscapeString(f.OutputKey()), escapeValue(value))
	}
}

func formCheckbox(f *schema.SchemaField, value any) string {
	checked := ""
	if b, ok := value.(bool); ok && b {
		checked = " checked"
	}
	return fmt.Sprintf("<input type='checkbox' name='%s'%s>",
		html.EscapeString(f.OutputKey()), checked)
}

func formFile(f *schema.SchemaField, _ any) string {
	return fmt.Sprintf("<input type='file' name='%s'>", html.EscapeString(f.OutputKey()))
}

func formSelect(f *schema.SchemaField, value any) string {
	return fmt.Sprintf("<select name='%s'><option value='%s' selected></option></select>",
		html.EscapeString(f.OutputKey()), escapeValue(value))
}

func formSelectMulti(f *schema.SchemaField, value any) string {
	options := ""
	if items, ok := value.([]any); ok {
		for _, item := range items {
			options += fmt.Sprintf("<option value='%s' selected></option>", escapeValue(item))
		}
	}
	return fmt.Sprintf("<select name='%s' multiple>%s</select>",
		html.EscapeString(f.OutputKey()), options)
}

func escapeValue(value any) string {
	if value == nil {
		return ""
	}
	return html.EscapeString(fmt.Sprintf("%v", value))
}

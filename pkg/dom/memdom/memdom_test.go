package memdom

import (
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

func code(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func mustElement(t *testing.T, d *Document, tag string) *Element {
	t.Helper()
	el, err := d.NewElement(tag)
	if err != nil {
		t.Fatalf("NewElement(%q): %v", tag, err)
	}
	return el
}

func TestNewDocument(t *testing.T) {
	d := New()
	got := d.HTML()
	want := "<!DOCTYPE html><html><head></head><body></body></html>"
	if got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
	if !d.Body().IsConnected() || !d.DocumentElement().IsConnected() {
		t.Error("body and html must be connected")
	}
	if d.Body().ParentElement() != d.DocumentElement() {
		t.Error("body parent should be html")
	}
	if d.DocumentElement().ParentNode() != nil {
		t.Error("html ParentNode should be nil")
	}
}

func TestCreateElement(t *testing.T) {
	d := New()

	el, err := d.CreateElement("DIV")
	if err != nil {
		t.Fatal(err)
	}
	if el.TagName() != "div" || el.NodeName() != "DIV" {
		t.Errorf("TagName = %q, NodeName = %q", el.TagName(), el.NodeName())
	}
	if el.IsConnected() {
		t.Error("new element should be detached")
	}

	for _, bad := range []string{"", "1div", "a b", "<p>"} {
		if _, err := d.CreateElement(bad); code(err) != "E133" {
			t.Errorf("CreateElement(%q) err = %v, want E133", bad, err)
		}
	}

	if _, err := d.CreateElement("my-widget"); err != nil {
		t.Errorf("custom element name rejected: %v", err)
	}
}

func TestTreeOperations(t *testing.T) {
	d := New()
	ul := mustElement(t, d, "ul")
	a := mustElement(t, d, "li")
	b := mustElement(t, d, "li")
	c := mustElement(t, d, "li")

	for _, li := range []*Element{a, c} {
		if err := ul.AppendChild(li); err != nil {
			t.Fatal(err)
		}
	}
	if err := ul.InsertBefore(b, c); err != nil {
		t.Fatal(err)
	}
	if got := ul.Children(); !reflect.DeepEqual(got, []*Element{a, b, c}) {
		t.Fatalf("children out of order")
	}

	if err := d.Body().AppendChild(ul); err != nil {
		t.Fatal(err)
	}
	if !b.IsConnected() {
		t.Error("descendant of body should be connected")
	}

	if err := ul.RemoveChild(b); err != nil {
		t.Fatal(err)
	}
	if b.IsConnected() || b.ParentNode() != nil {
		t.Error("removed node should be detached")
	}
	if err := ul.RemoveChild(b); code(err) != "E132" {
		t.Errorf("second RemoveChild err = %v, want E132", err)
	}

	// Appending an attached node moves it.
	if err := ul.AppendChild(a); err != nil {
		t.Fatal(err)
	}
	if got := ul.Children(); !reflect.DeepEqual(got, []*Element{c, a}) {
		t.Errorf("move did not reorder children")
	}

	a.Remove()
	if len(ul.ChildNodes()) != 1 {
		t.Errorf("Remove left %d children, want 1", len(ul.ChildNodes()))
	}
}

func TestHierarchyErrors(t *testing.T) {
	d := New()
	outer := mustElement(t, d, "div")
	inner := mustElement(t, d, "div")
	if err := outer.AppendChild(inner); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"self", outer.AppendChild(outer), "E130"},
		{"ancestor", inner.AppendChild(outer), "E130"},
		{"document element", outer.AppendChild(d.DocumentElement()), "E130"},
		{"nil", outer.AppendChild(nil), "E130"},
		{"text parent", d.NewText("x").AppendChild(mustElement(t, d, "b")), "E130"},
		{"other document", outer.AppendChild(mustElement(t, New(), "p")), "E131"},
		{"bad reference", outer.InsertBefore(mustElement(t, d, "p"), d.Body()), "E132"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code(tt.err) != tt.want {
				t.Errorf("err = %v, want %s", tt.err, tt.want)
			}
		})
	}
}

func TestAttributes(t *testing.T) {
	d := New()
	el := mustElement(t, d, "div")

	if err := el.SetAttribute("Data-Id", "7"); err != nil {
		t.Fatal(err)
	}
	if v, ok := el.GetAttribute("data-id"); !ok || v != "7" {
		t.Errorf("GetAttribute = %q, %v", v, ok)
	}
	if err := el.SetAttribute("bad name", "x"); code(err) != "E133" {
		t.Errorf("err = %v, want E133", err)
	}
	el.RemoveAttribute("data-id")
	if el.HasAttribute("data-id") {
		t.Error("attribute not removed")
	}
}

func TestProperties(t *testing.T) {
	d := New()

	input := mustElement(t, d, "input")
	_ = input.SetAttribute("value", "seed")
	if v, _ := input.Property("value"); v != "seed" {
		t.Errorf("value before edit = %v, want seed", v)
	}
	if err := input.SetProperty("value", 42); err != nil {
		t.Fatal(err)
	}
	if v, _ := input.Property("value"); v != "42" {
		t.Errorf("value = %v, want \"42\"", v)
	}
	if v, _ := input.GetAttribute("value"); v != "seed" {
		t.Errorf("value attribute changed to %q; live property must not reflect", v)
	}

	_ = input.SetProperty("checked", true)
	if v, _ := input.Property("checked"); v != true {
		t.Errorf("checked = %v", v)
	}
	if input.HasAttribute("checked") {
		t.Error("checked is live and must not set the attribute")
	}

	_ = input.SetProperty("disabled", true)
	if !input.HasAttribute("disabled") {
		t.Error("disabled should reflect to the attribute")
	}
	_ = input.SetProperty("disabled", false)
	if input.HasAttribute("disabled") {
		t.Error("disabled=false should remove the attribute")
	}

	label := mustElement(t, d, "label")
	if !label.HasProperty("htmlFor") {
		t.Error("label should have htmlFor")
	}
	_ = label.SetProperty("htmlFor", "name")
	if v, _ := label.GetAttribute("for"); v != "name" {
		t.Errorf("for = %q", v)
	}

	div := mustElement(t, d, "div")
	_ = div.SetProperty("tabIndex", "3")
	if v, _ := div.Property("tabIndex"); v != 3 {
		t.Errorf("tabIndex = %v", v)
	}
	if div.HasProperty("checked") {
		t.Error("div should not have checked")
	}
	if div.HasProperty("foo") {
		t.Error("unset expando should not be present")
	}
	_ = div.SetProperty("foo", []int{1})
	if !div.HasProperty("foo") {
		t.Error("expando should be present after set")
	}

	_ = div.SetProperty("textContent", "a < b")
	if div.TextContent() != "a < b" || div.InnerHTML() != "a &lt; b" {
		t.Errorf("textContent: %q / %q", div.TextContent(), div.InnerHTML())
	}
}

func TestTagSpecificProperties(t *testing.T) {
	d := New()

	tests := []struct {
		tag, prop string
		value     any
		attr      string
		want      string
	}{
		{"td", "colSpan", 2, "colspan", "2"},
		{"th", "rowSpan", 3, "rowspan", "3"},
		{"ol", "start", 5, "start", "5"},
		{"canvas", "width", 320, "width", "320"},
		{"details", "open", true, "open", ""},
		{"dialog", "open", true, "open", ""},
	}
	for _, tt := range tests {
		t.Run(tt.tag+"."+tt.prop, func(t *testing.T) {
			el := mustElement(t, d, tt.tag)
			if !el.HasProperty(tt.prop) {
				t.Fatalf("%s should have property %s", tt.tag, tt.prop)
			}
			if err := el.SetProperty(tt.prop, tt.value); err != nil {
				t.Fatal(err)
			}
			got, ok := el.GetAttribute(tt.attr)
			if !ok || got != tt.want {
				t.Errorf("attribute %s = %q, %v; want %q", tt.attr, got, ok, tt.want)
			}
		})
	}

	if mustElement(t, d, "div").HasProperty("colSpan") {
		t.Error("colSpan belongs to table cells only")
	}
}

func TestSelectValue(t *testing.T) {
	d := New()
	sel := mustElement(t, d, "select")
	if err := sel.SetInnerHTML(`<option>a</option><option value="bee" selected>b</option>`); err != nil {
		t.Fatal(err)
	}
	if v, _ := sel.Property("value"); v != "bee" {
		t.Errorf("value = %v, want bee", v)
	}
}

func TestEventHandlers(t *testing.T) {
	d := New()
	outer := mustElement(t, d, "div")
	inner := mustElement(t, d, "button")
	_ = outer.AppendChild(inner)

	var order []string
	_ = inner.SetProperty("onclick", func(ev dom.Event) {
		order = append(order, "inner")
		if ev.Target() != dom.Element(inner) {
			t.Error("target should be the button")
		}
	})
	_ = outer.SetProperty("onclick", func(ev dom.Event) {
		order = append(order, "outer")
		if ev.CurrentTarget() != dom.Element(outer) {
			t.Error("currentTarget should be the div")
		}
		ev.PreventDefault()
	})

	if inner.Click() {
		t.Error("Click should report a prevented default")
	}
	if !reflect.DeepEqual(order, []string{"inner", "outer"}) {
		t.Errorf("order = %v", order)
	}

	order = nil
	_ = inner.SetProperty("onclick", func(ev dom.Event) {
		order = append(order, "inner")
		ev.StopPropagation()
	})
	inner.Click()
	if !reflect.DeepEqual(order, []string{"inner"}) {
		t.Errorf("stopPropagation ignored: %v", order)
	}

	_ = inner.SetProperty("onclick", "alert(1)")
	if h, ok := inner.Property("onclick"); !ok || h != nil {
		t.Errorf("non-function handler should clear: %v, %v", h, ok)
	}
	if inner.HasAttribute("onclick") {
		t.Error("handler must never become an attribute")
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	d := New()
	el := mustElement(t, d, "div")
	_ = el.SetProperty("onclick", func() { panic("boom") })
	if !el.Click() {
		t.Error("Click should still complete")
	}
}

func TestClickCheckbox(t *testing.T) {
	d := New()
	box := mustElement(t, d, "input")
	_ = box.SetAttribute("type", "checkbox")

	changes := 0
	_ = box.SetProperty("onchange", func() { changes++ })
	box.Click()
	if v, _ := box.Property("checked"); v != true {
		t.Errorf("checked = %v after click", v)
	}

	_ = box.SetProperty("onclick", func(ev dom.Event) { ev.PreventDefault() })
	box.Click()
	if v, _ := box.Property("checked"); v != true {
		t.Errorf("cancelled click changed checked to %v", v)
	}
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}

func TestSerialisation(t *testing.T) {
	d := New()
	div := mustElement(t, d, "div")
	_ = div.SetAttribute("class", "box")
	_ = div.SetAttribute("hidden", "")
	_ = div.AppendChild(d.NewText("hi & bye"))
	br := mustElement(t, d, "br")
	_ = div.AppendChild(br)

	want := `<div class="box" hidden="">hi &amp; bye<br/></div>`
	if got := div.OuterHTML(); got != want {
		t.Errorf("OuterHTML = %q, want %q", got, want)
	}
}

func TestSetInnerHTML(t *testing.T) {
	d := New()
	ul := mustElement(t, d, "ul")
	if err := ul.SetInnerHTML(`<li id="x">one</li><!-- skip --><li>two</li>`); err != nil {
		t.Fatal(err)
	}
	if n := len(ul.Children()); n != 2 {
		t.Fatalf("children = %d, want 2", n)
	}
	if got := ul.InnerHTML(); got != `<li id="x">one</li><li>two</li>` {
		t.Errorf("InnerHTML = %q", got)
	}
}

func TestQuery(t *testing.T) {
	d := New()
	if err := d.Body().SetInnerHTML(`<ul><li class="item" id="a">one</li><li class="item">two</li><li>three</li></ul>`); err != nil {
		t.Fatal(err)
	}

	items, err := d.QueryAll("//li[@class='item']")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].TextContent() != "one" {
		t.Errorf("QueryAll matched %d items", len(items))
	}

	el, err := d.Query("//html")
	if err != nil || el != d.DocumentElement() {
		t.Errorf("Query(//html) = %v, %v", el, err)
	}

	if el, _ := d.Query("//table"); el != nil {
		t.Error("Query should return nil when nothing matches")
	}
	if _, err := d.Query("//li["); code(err) != "E136" {
		t.Errorf("bad expression err = %v, want E136", err)
	}

	if got := d.GetElementByID("a"); got != items[0] {
		t.Error("GetElementByID mismatch")
	}
	if d.GetElementByID("missing") != nil {
		t.Error("GetElementByID should return nil")
	}

	text, err := d.InnerText("//li[3]")
	if err != nil || text != "three" {
		t.Errorf("InnerText = %q, %v", text, err)
	}

	ul := d.Body().Children()[0]
	scoped, err := ul.QueryAll("//li")
	if err != nil || len(scoped) != 3 {
		t.Errorf("scoped QueryAll = %d, %v", len(scoped), err)
	}
}

func TestRender(t *testing.T) {
	d := New()
	p := mustElement(t, d, "p")
	_ = p.SetTextContent("hello")
	_ = d.Body().AppendChild(p)

	var b strings.Builder
	if err := d.Render(&b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "<body><p>hello</p></body>") {
		t.Errorf("Render = %q", b.String())
	}
}

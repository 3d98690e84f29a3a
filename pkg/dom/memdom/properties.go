package memdom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vango-dev/inactive/pkg/dom"
)

type propKind uint8

const (
	// reflected properties read and write an attribute
	reflectString propKind = iota
	reflectBool
	reflectInt

	// live properties hold state the attribute only seeds
	liveString
	liveBool

	textContentProp
	innerHTMLProp
)

type propDef struct {
	kind propKind
	attr string
}

func str(attr string) propDef  { return propDef{reflectString, attr} }
func flag(attr string) propDef { return propDef{reflectBool, attr} }
func num(attr string) propDef  { return propDef{reflectInt, attr} }

var globalProps = map[string]propDef{
	"id":          str("id"),
	"className":   str("class"),
	"title":       str("title"),
	"lang":        str("lang"),
	"dir":         str("dir"),
	"slot":        str("slot"),
	"accessKey":   str("accesskey"),
	"hidden":      flag("hidden"),
	"inert":       flag("inert"),
	"tabIndex":    num("tabindex"),
	"textContent": {kind: textContentProp},
	"innerHTML":   {kind: innerHTMLProp},
}

var formControlProps = map[string]propDef{
	"name":      str("name"),
	"disabled":  flag("disabled"),
	"autofocus": flag("autofocus"),
	"required":  flag("required"),
}

var tagProps = map[string]map[string]propDef{
	"input": {
		"value":          {liveString, "value"},
		"checked":        {liveBool, "checked"},
		"defaultValue":   str("value"),
		"defaultChecked": flag("checked"),
		"type":           str("type"),
		"placeholder":    str("placeholder"),
		"readOnly":       flag("readonly"),
		"multiple":       flag("multiple"),
		"min":            str("min"),
		"max":            str("max"),
		"step":           str("step"),
		"pattern":        str("pattern"),
		"accept":         str("accept"),
		"autocomplete":   str("autocomplete"),
		"maxLength":      num("maxlength"),
		"size":           num("size"),
		"src":            str("src"),
		"alt":            str("alt"),
	},
	"textarea": {
		"value":        {liveString, ""},
		"defaultValue": {kind: textContentProp},
		"placeholder":  str("placeholder"),
		"readOnly":     flag("readonly"),
		"rows":         num("rows"),
		"cols":         num("cols"),
		"maxLength":    num("maxlength"),
	},
	"select": {
		"value":    {liveString, ""},
		"multiple": flag("multiple"),
		"size":     num("size"),
	},
	"option": {
		"value":           str("value"),
		"label":           str("label"),
		"selected":        {liveBool, "selected"},
		"defaultSelected": flag("selected"),
		"disabled":        flag("disabled"),
	},
	"button": {
		"type":  str("type"),
		"value": str("value"),
	},
	"fieldset": {},
	"a": {
		"href":     str("href"),
		"target":   str("target"),
		"rel":      str("rel"),
		"download": str("download"),
		"hreflang": str("hreflang"),
		"type":     str("type"),
	},
	"img": {
		"src":     str("src"),
		"alt":     str("alt"),
		"srcset":  str("srcset"),
		"sizes":   str("sizes"),
		"loading": str("loading"),
		"width":   num("width"),
		"height":  num("height"),
	},
	"label": {
		"htmlFor": str("for"),
	},
	"form": {
		"action":       str("action"),
		"method":       str("method"),
		"target":       str("target"),
		"enctype":      str("enctype"),
		"name":         str("name"),
		"autocomplete": str("autocomplete"),
		"noValidate":   flag("novalidate"),
	},
	"script": {
		"src":   str("src"),
		"type":  str("type"),
		"async": flag("async"),
		"defer": flag("defer"),
	},
	"link": {
		"href":  str("href"),
		"rel":   str("rel"),
		"type":  str("type"),
		"media": str("media"),
	},
	"meta": {
		"name":      str("name"),
		"content":   str("content"),
		"httpEquiv": str("http-equiv"),
	},
	"td":      {"colSpan": num("colspan"), "rowSpan": num("rowspan")},
	"th":      {"colSpan": num("colspan"), "rowSpan": num("rowspan")},
	"ol":      {"start": num("start"), "reversed": flag("reversed")},
	"canvas":  {"width": num("width"), "height": num("height")},
	"details": {"open": flag("open")},
	"dialog":  {"open": flag("open")},
	"iframe": {
		"src":  str("src"),
		"name": str("name"),
	},
	"video": mediaProps,
	"audio": mediaProps,
}

var mediaProps = map[string]propDef{
	"src":      str("src"),
	"controls": flag("controls"),
	"autoplay": flag("autoplay"),
	"loop":     flag("loop"),
	"muted":    flag("muted"),
	"preload":  str("preload"),
}

var formControls = map[string]bool{
	"input": true, "textarea": true, "select": true, "button": true, "fieldset": true,
}

func lookupProp(tag, name string) (propDef, bool) {
	if def, ok := tagProps[tag][name]; ok {
		return def, true
	}
	if formControls[tag] {
		if def, ok := formControlProps[name]; ok {
			return def, true
		}
	}
	def, ok := globalProps[name]
	return def, ok
}

// handlerNames are the on<event> properties every element exposes.
var handlerNames = func() map[string]bool {
	events := []string{
		"abort", "animationcancel", "animationend", "animationiteration",
		"animationstart", "auxclick", "blur", "cancel", "canplay",
		"canplaythrough", "change", "click", "close", "contextmenu",
		"cuechange", "dblclick", "drag", "dragend", "dragenter", "dragexit",
		"dragleave", "dragover", "dragstart", "drop", "durationchange",
		"emptied", "ended", "error", "focus", "gotpointercapture", "input",
		"invalid", "keydown", "keypress", "keyup", "load", "loadeddata",
		"loadedmetadata", "loadstart", "lostpointercapture", "mousedown",
		"mouseenter", "mouseleave", "mousemove", "mouseout", "mouseover",
		"mouseup", "pause", "play", "playing", "pointercancel",
		"pointerdown", "pointerenter", "pointerleave", "pointermove",
		"pointerout", "pointerover", "pointerup", "progress", "ratechange",
		"reset", "resize", "scroll", "securitypolicyviolation", "seeked",
		"seeking", "select", "selectionchange", "selectstart", "stalled",
		"submit", "suspend", "timeupdate", "toggle", "touchcancel",
		"touchend", "touchmove", "touchstart", "transitioncancel",
		"transitionend", "transitionrun", "transitionstart",
		"volumechange", "waiting", "wheel",
	}
	m := make(map[string]bool, len(events))
	for _, ev := range events {
		m["on"+ev] = true
	}
	return m
}()

// IsEventHandlerName reports whether name is a known on<event> property.
func IsEventHandlerName(name string) bool { return handlerNames[name] }

// HasProperty implements dom.Element: known properties, event handler
// properties and expandos that have been set.
func (e *Element) HasProperty(name string) bool {
	if handlerNames[name] {
		return true
	}
	if _, ok := lookupProp(e.tag, name); ok {
		return true
	}
	_, ok := e.props[name]
	return ok
}

// SetProperty implements dom.Element. Known properties coerce value the
// way the browser does; unknown names become expando properties. Setting
// an event handler property to anything but a function clears it.
func (e *Element) SetProperty(name string, value any) error {
	if handlerNames[name] {
		if h, ok := dom.ToEventHandler(value); ok {
			if e.handlers == nil {
				e.handlers = make(map[string]dom.EventHandler)
			}
			e.handlers[name] = h
		} else {
			delete(e.handlers, name)
		}
		return nil
	}

	def, ok := lookupProp(e.tag, name)
	if !ok {
		e.setProp(name, value)
		return nil
	}

	switch def.kind {
	case reflectString:
		if value == nil {
			e.RemoveAttribute(def.attr)
			return nil
		}
		return e.SetAttribute(def.attr, toString(value))
	case reflectBool:
		if truthy(value) {
			return e.SetAttribute(def.attr, "")
		}
		e.RemoveAttribute(def.attr)
		return nil
	case reflectInt:
		return e.SetAttribute(def.attr, strconv.Itoa(toInt(value)))
	case liveString:
		e.setProp(name, toString(value))
	case liveBool:
		e.setProp(name, truthy(value))
	case textContentProp:
		return e.SetTextContent(toString(value))
	case innerHTMLProp:
		return e.SetInnerHTML(toString(value))
	}
	return nil
}

// Property implements dom.Element.
func (e *Element) Property(name string) (any, bool) {
	if handlerNames[name] {
		if h := e.handlers[name]; h != nil {
			return h, true
		}
		return nil, true
	}

	def, ok := lookupProp(e.tag, name)
	if !ok {
		v, ok := e.props[name]
		return v, ok
	}

	switch def.kind {
	case reflectString:
		v, ok := e.GetAttribute(def.attr)
		if !ok && e.tag == "option" && name == "value" {
			return e.TextContent(), true
		}
		return v, true
	case reflectBool:
		return e.HasAttribute(def.attr), true
	case reflectInt:
		v, _ := e.GetAttribute(def.attr)
		return toInt(v), true
	case liveString:
		if v, ok := e.props[name]; ok {
			return v, true
		}
		return e.defaultValue(), true
	case liveBool:
		if v, ok := e.props[name]; ok {
			return v, true
		}
		return e.HasAttribute(def.attr), true
	case textContentProp:
		return e.TextContent(), true
	case innerHTMLProp:
		return e.InnerHTML(), true
	}
	return nil, false
}

// SetTextContent replaces all children with a single text node, or with
// nothing when s is empty.
func (e *Element) SetTextContent(s string) error {
	if s == "" {
		return e.ReplaceChildren()
	}
	return e.ReplaceChildren(e.doc.NewText(s))
}

func (e *Element) setProp(name string, value any) {
	if e.props == nil {
		e.props = make(map[string]any)
	}
	e.props[name] = value
}

func (e *Element) defaultValue() string {
	switch e.tag {
	case "textarea":
		return e.TextContent()
	case "select":
		var first, selected *Element
		dom.Walk(e, func(n dom.Node) bool {
			opt, ok := n.(*Element)
			if !ok || opt.tag != "option" {
				return true
			}
			if first == nil {
				first = opt
			}
			if sel, _ := opt.Property("selected"); sel == true && selected == nil {
				selected = opt
			}
			return false
		})
		if selected == nil {
			selected = first
		}
		if selected == nil {
			return ""
		}
		v, _ := selected.Property("value")
		return v.(string)
	default:
		v, _ := e.GetAttribute("value")
		return v
	}
}

// toString converts a property value the way String(value) does in
// JavaScript for the value kinds Go code passes.
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		return fmt.Sprint(x)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return fmt.Sprint(x)
	case float32:
		return dom.FormatNumber(float64(x))
	case float64:
		return dom.FormatNumber(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

func toInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	case float32:
		return int(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

package rodom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/adswap/dom"
)

const describeTimeout = time.Second

// Element is a live DOM element.
type Element struct {
	el *rod.Element

	descOnce sync.Once
	desc     string
}

// Marked reports a non-empty marker attribute; an empty value counts as unmarked.
func (e *Element) Marked(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`(name) => !!this.getAttribute(name)`, dom.MarkerAttr)
	if err != nil {
		return false, fmt.Errorf("rodom: marked: %w", err)
	}
	return res.Value.Bool(), nil
}

// Mark sets the marker attribute.
func (e *Element) Mark(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`(name, value) => { this.setAttribute(name, value) }`,
		dom.MarkerAttr, dom.MarkerValue)
	if err != nil {
		return fmt.Errorf("rodom: mark: %w", err)
	}
	return nil
}

// Measure reads offsetWidth, offsetHeight and the inline display value.
func (e *Element) Measure(ctx context.Context) (dom.Box, error) {
	res, err := e.el.Context(ctx).Eval(`() => ({
		w: this.offsetWidth || 0,
		h: this.offsetHeight || 0,
		d: (this.style && this.style.display) || ""
	})`)
	if err != nil {
		return dom.Box{}, fmt.Errorf("rodom: measure: %w", err)
	}
	v := res.Value
	return dom.Box{
		Width:   v.Get("w").Num(),
		Height:  v.Get("h").Num(),
		Display: v.Get("d").Str(),
	}, nil
}

type containerArgs struct {
	Class     string `json:"class"`
	Style     string `json:"style"`
	TextClass string `json:"textClass"`
	Text      string `json:"text"`
	RefClass  string `json:"refClass"`
	Ref       string `json:"ref"`
}

// InsertBefore builds the container with textContent only and inserts it
// as the previous sibling.
func (e *Element) InsertBefore(ctx context.Context, c dom.Container) (bool, error) {
	args := containerArgs{
		Class:     dom.ContainerClass,
		Style:     c.Style(),
		TextClass: dom.TextClass,
		Text:      c.Quote(),
		RefClass:  dom.RefClass,
		Ref:       c.Ref,
	}
	res, err := e.el.Context(ctx).Eval(`(c) => {
		const parent = this.parentNode;
		if (!parent) {
			return false;
		}
		const box = document.createElement("div");
		box.className = c.class;
		box.setAttribute("style", c.style);
		const text = document.createElement("div");
		text.className = c.textClass;
		text.textContent = c.text;
		const ref = document.createElement("div");
		ref.className = c.refClass;
		ref.textContent = c.ref;
		box.appendChild(text);
		box.appendChild(ref);
		parent.insertBefore(box, this);
		return true;
	}`, args)
	if err != nil {
		return false, fmt.Errorf("rodom: insert: %w", err)
	}
	return res.Value.Bool(), nil
}

// Hide sets the inline display to none.
func (e *Element) Hide(ctx context.Context) error {
	if _, err := e.el.Context(ctx).Eval(`() => { this.style.display = "none" }`); err != nil {
		return fmt.Errorf("rodom: hide: %w", err)
	}
	return nil
}

// Describe returns tag#id.class, resolved once.
func (e *Element) Describe() string {
	e.descOnce.Do(func() {
		e.desc = "element"
		res, err := e.el.Timeout(describeTimeout).Eval(`() => {
			let s = this.tagName.toLowerCase();
			if (this.id) s += "#" + this.id;
			const cls = (typeof this.className === "string" ? this.className : "").trim();
			if (cls) s += "." + cls.split(/\s+/).join(".");
			return s;
		}`)
		if err == nil {
			e.desc = res.Value.Str()
		}
	})
	return e.desc
}

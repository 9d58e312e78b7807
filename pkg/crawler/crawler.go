// Package crawler discovers the action catalog for a target page: the
// interactable elements and the atomic operations they support.
package crawler

import (
	"context"

	"github.com/chromedp/chromedp"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/errors"
	"github.com/uievolve/uievolve/pkg/logging"
	"github.com/uievolve/uievolve/pkg/runner"
)

// defaultFillValue seeds FILL actions discovered on text inputs. Mutation
// perturbs it over the course of a run.
const defaultFillValue = "test"

// scanScript walks the DOM and describes every interactable element. The
// element kinds and the attribute priority mirror what the catalog's
// selectors can express.
const scanScript = `(() => {
	const out = [];
	const push = (el, kind, value) => {
		const text = (el.textContent || el.value || "").trim().slice(0, 80);
		out.push({
			kind: kind,
			id: el.id || "",
			name: el.getAttribute("name") || "",
			class: el.getAttribute("class") || "",
			text: text,
			value: value || "",
		});
	};
	document.querySelectorAll("button, input[type=submit], input[type=button]")
		.forEach(el => push(el, "button"));
	document.querySelectorAll("input:not([type=submit]):not([type=button]):not([type=hidden]), textarea")
		.forEach(el => push(el, "input"));
	document.querySelectorAll("a[href]").forEach(el => push(el, "link"));
	document.querySelectorAll("select").forEach(el => {
		let value = "";
		if (el.options.length > 0) {
			value = el.options[el.options.length - 1].value;
		}
		push(el, "dropdown", value);
	});
	return out;
})()`

// pageElement is one discovered element as reported by scanScript.
type pageElement struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Crawler scans a page for interactable elements using the same browser
// configuration the runner executes with.
type Crawler struct {
	config *runner.Config
}

// New creates a crawler over the given browser configuration.
func New(cfg *runner.Config) *Crawler {
	return &Crawler{config: cfg}
}

// Discover opens the target page and returns its action catalog. An
// unreachable page or a page without interactable elements is a
// configuration error: there is nothing to evolve.
func (c *Crawler) Discover(ctx context.Context) (*catalog.Catalog, error) {
	logger := logging.GetLogger()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !c.config.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if c.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if c.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.config.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var elements []pageElement
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.config.StartURL),
		chromedp.Evaluate(scanScript, &elements),
	)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.SessionFailed, "catalog discovery failed"),
			errors.Fields{"url": c.config.StartURL})
	}

	actions := make([]catalog.Action, 0, len(elements))
	skipped := 0
	for _, el := range elements {
		action, ok := toAction(el)
		if !ok {
			skipped++
			continue
		}
		actions = append(actions, action)
	}

	logger.Info(ctx, "Catalog discovered: url=%s, actions=%d, skipped=%d",
		c.config.StartURL, len(actions), skipped)

	return catalog.New(actions)
}

// toAction maps a discovered element to its atomic operation. Elements
// with no identifiable attribute are skipped; there is no stable way to
// target them again.
func toAction(el pageElement) (catalog.Action, bool) {
	selector := catalog.Selector{
		ID:    el.ID,
		Name:  el.Name,
		Class: el.Class,
		Text:  el.Text,
	}
	if !selector.Identifiable() {
		return catalog.Action{}, false
	}

	switch el.Kind {
	case "button":
		selector.Kind = catalog.Button
		return catalog.Action{Kind: catalog.Click, Target: selector}, true
	case "link":
		selector.Kind = catalog.Link
		return catalog.Action{Kind: catalog.Click, Target: selector}, true
	case "input":
		selector.Kind = catalog.Input
		return catalog.Action{Kind: catalog.Fill, Target: selector, Value: defaultFillValue}, true
	case "dropdown":
		selector.Kind = catalog.Dropdown
		return catalog.Action{Kind: catalog.Select, Target: selector, Value: el.Value}, true
	}
	return catalog.Action{}, false
}

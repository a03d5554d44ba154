package emailbuilder

import (
	"fmt"
	"strings"
)

// RenderFormat selects the output dialect.
type RenderFormat string

const (
	FormatHTML RenderFormat = "html"
	FormatAMP  RenderFormat = "amp"
	FormatMJML RenderFormat = "mjml"
)

// RenderOptions control one export. Identical template + identical options
// always produce byte-identical output; preview, export and download must
// agree, and tests assert exact strings.
type RenderOptions struct {
	Format           RenderFormat      `json:"format"`
	Minify           bool              `json:"minify"`
	InlineCSS        bool              `json:"inlineCss"`
	RemoveComments   bool              `json:"removeComments"`
	IncludePreheader bool              `json:"includePreheader"`
	ESPID            ESPID             `json:"espId,omitempty"`
	Data             map[string]string `json:"data,omitempty"`
}

// Render walks the template tree and produces a complete email document.
// It never fails for a structurally valid template: unknown component types
// render as visible placeholder blocks, never silent drops.
func Render(t *Template, opts RenderOptions) (string, error) {
	if t == nil {
		return "", fmt.Errorf("cannot render a nil template")
	}
	if opts.Format == "" {
		opts.Format = FormatHTML
	}

	if opts.Format == FormatMJML {
		return renderMJML(t, opts)
	}

	r := &renderer{
		t:    t,
		opts: opts,
		data: buildMergeData(t, opts.Data),
	}
	if t.Settings.EnableDynamicContent {
		r.liquid = NewLiquidEngine()
	}

	var body strings.Builder
	for _, node := range t.Components {
		body.WriteString(r.renderNode(node))
	}

	doc := r.documentShell(body.String())
	return postProcess(doc, opts), nil
}

// buildMergeData overlays session-provided live values on the template's
// declared merge-tag defaults.
func buildMergeData(t *Template, live map[string]string) map[string]string {
	data := MergeTagDefaults(t.Settings.MergeTags)
	for k, v := range live {
		data[k] = v
	}
	return data
}

type renderer struct {
	t      *Template
	opts   RenderOptions
	data   map[string]string
	liquid *LiquidEngine

	// collected class rules for the embedded-stylesheet path
	classRules []string
}

// resolveText runs one text-bearing content field through the dynamic
// content engine (when opted in) and merge-tag resolution or ESP
// translation.
func (r *renderer) resolveText(text string) string {
	if text == "" {
		return ""
	}
	// Liquid owns {% %} tag markup only; {{key}} stays merge-tag territory,
	// so the tokens are shielded from the engine and any the resolver cannot
	// substitute remain visible in the output.
	if r.liquid != nil && strings.Contains(text, "{%") {
		if rendered, err := r.liquid.Render(protectMergeTags(text), liquidData(r.data)); err == nil {
			text = rendered
		}
	}
	if r.opts.ESPID != "" && KnownESP(r.opts.ESPID) {
		return TranslateESPTags(text, r.opts.ESPID)
	}
	return ResolveMergeTags(text, r.data)
}

func liquidData(data map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

// nodeStyle resolves a node's effective properties (type defaults under the
// node's own values) and returns the attribute string carrying them: a
// style="" attribute when inlining, a class reference otherwise.
func (r *renderer) nodeStyle(node *ComponentNode) string {
	props := mergedProps(DefaultStyles(node.Type).Props, node.Styles.Props)
	extra := ""
	if node.Settings.HideOnMobile {
		extra = " hide-mobile"
	} else if node.Settings.HideOnDesktop {
		extra = " hide-desktop"
	}

	if r.opts.InlineCSS {
		attr := styleAttr(props)
		if extra != "" {
			attr += fmt.Sprintf(` class=%q`, strings.TrimSpace(extra))
		}
		return attr
	}

	class := "c-" + node.ID
	if rule := cssRule("."+class, props); rule != "" {
		r.classRules = append(r.classRules, rule)
	}
	if len(node.Styles.MobileStyles) > 0 {
		if rule := cssRule("."+class, node.Styles.MobileStyles); rule != "" {
			r.classRules = append(r.classRules, mediaQuery(r.t.GlobalStyles.Responsive.MobileBreakpoint, rule))
		}
	}
	if len(node.Styles.TabletStyles) > 0 {
		if rule := cssRule("."+class, node.Styles.TabletStyles); rule != "" {
			r.classRules = append(r.classRules, mediaQuery(r.t.GlobalStyles.Responsive.TabletBreakpoint, rule))
		}
	}
	return fmt.Sprintf(` class=%q`, class+extra)
}

func mediaQuery(breakpoint, rule string) string {
	if breakpoint == "" {
		breakpoint = "480px"
	}
	return fmt.Sprintf("@media (max-width: %s) { %s }", breakpoint, rule)
}

// renderNode dispatches one node to its type-specific markup rule. Hidden
// nodes emit nothing; container types recurse.
func (r *renderer) renderNode(node *ComponentNode) string {
	if node == nil || node.Hidden {
		return ""
	}

	if r.opts.Format == FormatAMP {
		if fragment, ok := r.renderAmpNode(node); ok {
			return fragment
		}
		// No AMP rule for this type: fall back to the regular HTML rule.
		// The fallback is deliberate and explicit; nodes are never omitted
		// silently.
	}

	switch node.Type {
	case ComponentHeader:
		return r.renderHeader(node)
	case ComponentText:
		return r.renderText(node)
	case ComponentHeading:
		return r.renderHeading(node)
	case ComponentImage:
		return r.renderImage(node)
	case ComponentButton:
		return r.renderButton(node)
	case ComponentDivider:
		return r.renderDivider(node)
	case ComponentSpacer:
		return r.renderSpacer(node)
	case ComponentColumns, ComponentRow:
		return r.renderColumns(node)
	case ComponentContainer, ComponentColumn:
		return r.renderContainer(node)
	case ComponentSocial:
		return r.renderSocial(node)
	case ComponentFooter:
		return r.renderFooter(node)
	case ComponentVideo:
		return r.renderVideo(node)
	case ComponentHTML:
		return r.renderRawHTML(node)
	default:
		// Advanced presentation widgets (timer, product, testimonial, …)
		// and unknown types degrade to a labeled placeholder block. A
		// broken-looking cell is debuggable; silent data loss is not.
		return r.renderPlaceholder(node)
	}
}

func (r *renderer) renderChildren(node *ComponentNode) string {
	var sb strings.Builder
	for _, child := range node.Children {
		sb.WriteString(r.renderNode(child))
	}
	return sb.String()
}

// documentShell wraps the rendered body in an email-safe, table-based
// document sized to the template width.
func (r *renderer) documentShell(content string) string {
	t := r.t
	g := t.GlobalStyles

	dir := t.Settings.Direction
	if dir == "" {
		dir = "ltr"
	}
	width := t.Settings.Width
	if width <= 0 {
		width = DefaultTemplateWidth
	}
	bodyBackground := t.Settings.BackgroundColor
	if bodyBackground == "" {
		bodyBackground = g.Container.BackgroundColor
	}
	if bodyBackground == "" {
		bodyBackground = "#f4f4f5"
	}
	contentBackground := g.Container.ContentBackgroundColor
	if contentBackground == "" {
		contentBackground = "#ffffff"
	}
	fontFamily := g.Typography.FontFamily
	if fontFamily == "" {
		fontFamily = "Helvetica, Arial, sans-serif"
	}
	baseFontSize := g.Typography.BaseFontSize
	if baseFontSize == "" {
		baseFontSize = "16px"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	if r.opts.Format == FormatAMP {
		sb.WriteString(fmt.Sprintf("<html dir=%q amp4email data-css-strict>\n", dir))
	} else {
		sb.WriteString(fmt.Sprintf("<html dir=%q lang=\"en\" xmlns=\"http://www.w3.org/1999/xhtml\">\n", dir))
	}
	sb.WriteString("<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	if r.opts.Format == FormatAMP {
		sb.WriteString("<script async src=\"https://cdn.ampproject.org/v0.js\"></script>\n")
		sb.WriteString("<style amp4email-boilerplate>body{visibility:hidden}</style>\n")
	} else {
		sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	}
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", r.resolveText(t.Subject)))
	sb.WriteString(r.styleBlock(bodyBackground, fontFamily, baseFontSize))
	sb.WriteString("</head>\n")

	sb.WriteString(fmt.Sprintf(`<body style="margin: 0; padding: 0; background-color: %s; font-family: %s; font-size: %s;">`, bodyBackground, fontFamily, baseFontSize))
	sb.WriteString("\n")

	if r.opts.IncludePreheader && t.Preheader != "" {
		sb.WriteString(fmt.Sprintf(`<span style="display: none; font-size: 1px; color: %s; max-height: 0; overflow: hidden;">%s</span>`, bodyBackground, r.resolveText(t.Preheader)))
		sb.WriteString("\n")
	}

	// Nested tables are what email clients render reliably.
	sb.WriteString(fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="background-color: %s;">`, bodyBackground))
	sb.WriteString("\n<tr><td align=\"center\">\n")
	sb.WriteString(fmt.Sprintf(`<table role="presentation" width="%d" cellpadding="0" cellspacing="0" border="0" style="width: %dpx; max-width: 100%%; background-color: %s;">`, width, width, contentBackground))
	sb.WriteString("\n<tr><td>\n")
	sb.WriteString(content)
	sb.WriteString("\n</td></tr>\n</table>\n")
	sb.WriteString("</td></tr>\n</table>\n")
	sb.WriteString("</body>\n</html>\n")

	return sb.String()
}

// styleBlock emits the embedded stylesheet: collected per-node class rules
// (embedded-CSS path), responsive helpers and the author's custom CSS.
func (r *renderer) styleBlock(bodyBackground, fontFamily, baseFontSize string) string {
	var rules []string

	mobileBP := r.t.GlobalStyles.Responsive.MobileBreakpoint
	if mobileBP == "" {
		mobileBP = "480px"
	}
	rules = append(rules, fmt.Sprintf("@media (max-width: %s) { .hide-mobile { display: none !important; } }", mobileBP))
	rules = append(rules, fmt.Sprintf("@media (min-width: %s) { .hide-desktop { display: none !important; } }", mobileBP))

	rules = append(rules, r.classRules...)

	if css := strings.TrimSpace(r.t.GlobalStyles.CustomCSS); css != "" {
		rules = append(rules, css)
	}

	open := "<style>"
	if r.opts.Format == FormatAMP {
		open = "<style amp-custom>"
	}
	return fmt.Sprintf("%s\n%s\n</style>\n", open, strings.Join(rules, "\n"))
}

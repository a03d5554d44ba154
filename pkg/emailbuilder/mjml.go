package emailbuilder

import (
	"context"
	"fmt"
	"strings"

	mjmlgo "github.com/Boostport/mjml-go"
)

// MJML export: the component tree is translated to MJML markup and compiled
// to responsive email HTML through the mjml-go compiler. Types with a
// natural MJML equivalent map to mj-* tags; everything else is carried
// through mj-raw with its regular HTML rendering so nothing is dropped.

// renderMJML converts the template and compiles it. When Minify is set the
// compiler's own minifier runs on the result.
func renderMJML(t *Template, opts RenderOptions) (string, error) {
	r := &renderer{
		t:    t,
		opts: RenderOptions{Format: FormatHTML, InlineCSS: true, ESPID: opts.ESPID, Data: opts.Data},
		data: buildMergeData(t, opts.Data),
	}
	if t.Settings.EnableDynamicContent {
		r.liquid = NewLiquidEngine()
	}

	markup := buildMJMLDocument(r)

	compileOpts := []mjmlgo.ToHTMLOption{}
	if opts.Minify {
		compileOpts = append(compileOpts, mjmlgo.WithMinify(true))
	}
	html, err := mjmlgo.ToHTML(context.Background(), markup, compileOpts...)
	if err != nil {
		return "", fmt.Errorf("mjml compilation failed: %w", err)
	}
	if opts.RemoveComments {
		html = htmlCommentPattern.ReplaceAllString(html, "")
	}
	return html, nil
}

// BuildMJML returns the intermediate MJML markup for a template without
// compiling it, useful for debugging exports.
func BuildMJML(t *Template) string {
	r := &renderer{
		t:    t,
		opts: RenderOptions{Format: FormatHTML, InlineCSS: true},
		data: buildMergeData(t, nil),
	}
	return buildMJMLDocument(r)
}

func buildMJMLDocument(r *renderer) string {
	t := r.t
	width := t.Settings.Width
	if width <= 0 {
		width = DefaultTemplateWidth
	}

	var sb strings.Builder
	sb.WriteString("<mjml>\n")
	sb.WriteString("  <mj-head>\n")
	sb.WriteString(fmt.Sprintf("    <mj-title>%s</mj-title>\n", escapeMJMLContent(r.resolveText(t.Subject))))
	if t.Preheader != "" {
		sb.WriteString(fmt.Sprintf("    <mj-preview>%s</mj-preview>\n", escapeMJMLContent(r.resolveText(t.Preheader))))
	}
	if ff := t.GlobalStyles.Typography.FontFamily; ff != "" {
		sb.WriteString("    <mj-attributes>\n")
		sb.WriteString(fmt.Sprintf("      <mj-all font-family=\"%s\" />\n", escapeAttr(ff, "font-family")))
		sb.WriteString("    </mj-attributes>\n")
	}
	sb.WriteString("  </mj-head>\n")

	background := t.Settings.BackgroundColor
	if background == "" {
		background = t.GlobalStyles.Container.BackgroundColor
	}
	sb.WriteString(fmt.Sprintf("  <mj-body width=\"%dpx\"", width))
	if background != "" {
		sb.WriteString(fmt.Sprintf(" background-color=\"%s\"", background))
	}
	sb.WriteString(">\n")

	for _, node := range t.Components {
		sb.WriteString(mjmlSection(r, node, 2))
	}

	sb.WriteString("  </mj-body>\n")
	sb.WriteString("</mjml>\n")
	return sb.String()
}

// mjmlSection renders one root-level node as an mj-section.
func mjmlSection(r *renderer, node *ComponentNode, indentLevel int) string {
	if node == nil || node.Hidden {
		return ""
	}
	indent := strings.Repeat("  ", indentLevel)

	if node.Type == ComponentColumns || node.Type == ComponentRow {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s<mj-section%s>\n", indent, mjmlAttrs(node)))
		for _, child := range node.Children {
			if child == nil || child.Hidden {
				continue
			}
			sb.WriteString(fmt.Sprintf("%s  <mj-column>\n", indent))
			sb.WriteString(mjmlLeaf(r, child, indentLevel+2))
			sb.WriteString(fmt.Sprintf("%s  </mj-column>\n", indent))
		}
		sb.WriteString(fmt.Sprintf("%s</mj-section>\n", indent))
		return sb.String()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s<mj-section%s>\n", indent, mjmlAttrs(node)))
	sb.WriteString(fmt.Sprintf("%s  <mj-column>\n", indent))
	sb.WriteString(mjmlLeaf(r, node, indentLevel+2))
	sb.WriteString(fmt.Sprintf("%s  </mj-column>\n", indent))
	sb.WriteString(fmt.Sprintf("%s</mj-section>\n", indent))
	return sb.String()
}

// mjmlLeaf renders one node as an mj-* content tag, falling back to mj-raw
// carrying the HTML rule for types MJML has no equivalent for.
func mjmlLeaf(r *renderer, node *ComponentNode, indentLevel int) string {
	indent := strings.Repeat("  ", indentLevel)
	props := node.Styles.Props

	switch node.Type {
	case ComponentText:
		content, _ := node.Content.(TextContent)
		return fmt.Sprintf("%s<mj-text%s>%s</mj-text>\n", indent, mjmlStyleAttrs(props, "color", "fontSize", "lineHeight", "textAlign"), r.resolveText(content.Text))
	case ComponentHeading:
		content, _ := node.Content.(HeadingContent)
		return fmt.Sprintf("%s<mj-text%s>%s</mj-text>\n", indent, mjmlStyleAttrs(props, "color", "fontSize", "fontWeight", "textAlign"), r.resolveText(content.Text))
	case ComponentHeader:
		content, _ := node.Content.(HeaderContent)
		inner := fmt.Sprintf("<h1>%s</h1>", r.resolveText(content.Title))
		if content.Subtitle != "" {
			inner += fmt.Sprintf("<p>%s</p>", r.resolveText(content.Subtitle))
		}
		return fmt.Sprintf("%s<mj-text%s>%s</mj-text>\n", indent, mjmlStyleAttrs(props, "backgroundColor", "color", "textAlign"), inner)
	case ComponentFooter:
		content, _ := node.Content.(FooterContent)
		return fmt.Sprintf("%s<mj-text%s>%s</mj-text>\n", indent, mjmlStyleAttrs(props, "color", "fontSize", "textAlign"), r.resolveText(content.Content))
	case ComponentButton:
		content, _ := node.Content.(ButtonContent)
		return fmt.Sprintf("%s<mj-button href=\"%s\"%s>%s</mj-button>\n", indent, escapeAttr(content.Href, "href"), mjmlStyleAttrs(props, "backgroundColor", "color", "borderRadius", "fontSize"), r.resolveText(content.Text))
	case ComponentImage:
		content, _ := node.Content.(ImageContent)
		attrs := fmt.Sprintf(" src=\"%s\" alt=\"%s\"", escapeAttr(content.Src, "src"), escapeAttr(content.Alt, "alt"))
		if content.Href != "" {
			attrs += fmt.Sprintf(" href=\"%s\"", escapeAttr(content.Href, "href"))
		}
		return fmt.Sprintf("%s<mj-image%s />\n", indent, attrs)
	case ComponentDivider:
		return fmt.Sprintf("%s<mj-divider border-width=\"1px\" border-color=\"#e5e7eb\" />\n", indent)
	case ComponentSpacer:
		height := props["height"]
		if height == "" {
			height = "32px"
		}
		return fmt.Sprintf("%s<mj-spacer height=\"%s\" />\n", indent, height)
	case ComponentSocial:
		content, _ := node.Content.(SocialContent)
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s<mj-social>\n", indent))
		for _, link := range content.Links {
			sb.WriteString(fmt.Sprintf("%s  <mj-social-element name=\"%s\" href=\"%s\" />\n", indent, escapeAttr(link.Platform, "name"), escapeAttr(link.URL, "href")))
		}
		sb.WriteString(fmt.Sprintf("%s</mj-social>\n", indent))
		return sb.String()
	case ComponentHTML:
		content, _ := node.Content.(HTMLContent)
		return fmt.Sprintf("%s<mj-raw>%s</mj-raw>\n", indent, content.HTML)
	default:
		// No MJML equivalent: carry the HTML rendering through mj-raw.
		return fmt.Sprintf("%s<mj-raw>%s</mj-raw>\n", indent, r.renderNode(node))
	}
}

// mjmlAttrs renders the section-level attributes for a node.
func mjmlAttrs(node *ComponentNode) string {
	var sb strings.Builder
	if bg := node.Styles.Get("backgroundColor"); bg != "" {
		sb.WriteString(fmt.Sprintf(" background-color=\"%s\"", bg))
	}
	for _, key := range []string{"paddingTop", "paddingRight", "paddingBottom", "paddingLeft"} {
		if v := node.Styles.Get(key); v != "" {
			sb.WriteString(fmt.Sprintf(" %s=\"%s\"", camelToKebab(key), v))
		}
	}
	return sb.String()
}

// mjmlStyleAttrs lifts selected style properties into mj-* tag attributes.
func mjmlStyleAttrs(props map[string]string, keys ...string) string {
	var sb strings.Builder
	for _, key := range keys {
		if v := props[key]; v != "" {
			attr := camelToKebab(key)
			if key == "backgroundColor" {
				attr = "container-background-color"
			}
			sb.WriteString(fmt.Sprintf(" %s=\"%s\"", attr, v))
		}
	}
	return sb.String()
}

// escapeMJMLContent escapes text destined for non-HTML-bearing MJML tags.
func escapeMJMLContent(content string) string {
	content = strings.ReplaceAll(content, "&", "&amp;")
	content = strings.ReplaceAll(content, "<", "&lt;")
	content = strings.ReplaceAll(content, ">", "&gt;")
	return content
}

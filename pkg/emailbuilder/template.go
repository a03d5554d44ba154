package emailbuilder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/tidwall/gjson"
)

// VariableType constrains the value kind of a merge-tag declaration.
type VariableType string

const (
	VariableText    VariableType = "text"
	VariableEmail   VariableType = "email"
	VariableNumber  VariableType = "number"
	VariableDate    VariableType = "date"
	VariableURL     VariableType = "url"
	VariableImage   VariableType = "image"
	VariableBoolean VariableType = "boolean"
)

func (t VariableType) Validate() error {
	switch t {
	case VariableText, VariableEmail, VariableNumber, VariableDate, VariableURL, VariableImage, VariableBoolean:
		return nil
	}
	return fmt.Errorf("invalid variable type: %s", t)
}

// Variable declares a merge tag usable as {{key}} inside template text.
type Variable struct {
	Key          string       `json:"key"`
	Label        string       `json:"label,omitempty"`
	Type         VariableType `json:"type"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	Validation   string       `json:"validation,omitempty"`
}

func (v *Variable) Validate() error {
	if v.Key == "" {
		return fmt.Errorf("invalid variable: key is required")
	}
	if !govalidator.Matches(v.Key, `^\w+$`) {
		return fmt.Errorf("invalid variable: key %q must contain only word characters", v.Key)
	}
	if err := v.Type.Validate(); err != nil {
		return fmt.Errorf("invalid variable %q: %w", v.Key, err)
	}
	if v.DefaultValue != "" {
		switch v.Type {
		case VariableEmail:
			if !govalidator.IsEmail(v.DefaultValue) {
				return fmt.Errorf("invalid variable %q: default value is not a valid email", v.Key)
			}
		case VariableURL, VariableImage:
			if !govalidator.IsURL(v.DefaultValue) {
				return fmt.Errorf("invalid variable %q: default value is not a valid URL", v.Key)
			}
		case VariableNumber:
			if !govalidator.IsNumeric(v.DefaultValue) && !govalidator.IsFloat(v.DefaultValue) {
				return fmt.Errorf("invalid variable %q: default value is not numeric", v.Key)
			}
		}
	}
	return nil
}

// ChangeType classifies an audit record.
type ChangeType string

const (
	ChangeComponentAdd     ChangeType = "component_add"
	ChangeComponentRemove  ChangeType = "component_remove"
	ChangeComponentUpdate  ChangeType = "component_update"
	ChangeStyle            ChangeType = "style_change"
	ChangeContent          ChangeType = "content_change"
	ChangeTemplateSettings ChangeType = "template_settings"
)

// Change is an immutable audit record describing one observed difference
// between two template versions.
type Change struct {
	Type        ChangeType             `json:"type"`
	Description string                 `json:"description"`
	ComponentID string                 `json:"componentId,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Author      string                 `json:"author,omitempty"`
}

// ContainerStyles drive the outer document shell.
type ContainerStyles struct {
	BackgroundColor        string `json:"backgroundColor,omitempty"`
	ContentBackgroundColor string `json:"contentBackgroundColor,omitempty"`
	Padding                string `json:"padding,omitempty"`
}

// ColorPalette holds the global color tokens.
type ColorPalette struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Accent    string `json:"accent,omitempty"`
	Text      string `json:"text,omitempty"`
	Muted     string `json:"muted,omitempty"`
	Link      string `json:"link,omitempty"`
}

// TypographyScale holds the global type tokens.
type TypographyScale struct {
	FontFamily     string            `json:"fontFamily,omitempty"`
	BaseFontSize   string            `json:"baseFontSize,omitempty"`
	BaseLineHeight string            `json:"baseLineHeight,omitempty"`
	HeadingSizes   map[string]string `json:"headingSizes,omitempty"`
}

// ResponsiveSettings declare the breakpoints the renderer emits media
// queries for.
type ResponsiveSettings struct {
	MobileBreakpoint string `json:"mobileBreakpoint,omitempty"`
	TabletBreakpoint string `json:"tabletBreakpoint,omitempty"`
}

// GlobalStyles are the template-wide design tokens.
type GlobalStyles struct {
	Container    ContainerStyles    `json:"container"`
	Colors       ColorPalette       `json:"colors"`
	Typography   TypographyScale    `json:"typography"`
	Spacing      map[string]string  `json:"spacing,omitempty"`
	BorderRadius map[string]string  `json:"borderRadius,omitempty"`
	Shadows      map[string]string  `json:"shadows,omitempty"`
	Responsive   ResponsiveSettings `json:"responsive"`
	CustomCSS    string             `json:"customCss,omitempty"`
}

// ClientCompatFlags record which email clients the author targets.
type ClientCompatFlags struct {
	Outlook   bool `json:"outlook,omitempty"`
	Gmail     bool `json:"gmail,omitempty"`
	AppleMail bool `json:"appleMail,omitempty"`
}

// TemplateSettings hold delivery-level configuration.
type TemplateSettings struct {
	Width                int               `json:"width"`
	BackgroundColor      string            `json:"backgroundColor,omitempty"`
	Direction            string            `json:"direction,omitempty"` // ltr, rtl
	ClientCompat         ClientCompatFlags `json:"clientCompat"`
	MergeTags            []Variable        `json:"mergeTags,omitempty"`
	EnableDynamicContent bool              `json:"enableDynamicContent,omitempty"`
}

// TemplateMetadata carries derived and descriptive fields. Components is
// always recomputed from the tree, never hand-maintained.
type TemplateMetadata struct {
	Components  int      `json:"components"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Purpose     string   `json:"purpose,omitempty"`
	Changelog   []Change `json:"changelog,omitempty"`
}

// Template is the root document aggregate: metadata, the component tree,
// global style tokens and delivery settings. Mutations never modify a
// Template in place; they return a new value so history snapshots stay
// frozen.
type Template struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Subject      string           `json:"subject"`
	Preheader    string           `json:"preheader,omitempty"`
	Components   []*ComponentNode `json:"components"`
	GlobalStyles GlobalStyles     `json:"globalStyles"`
	Settings     TemplateSettings `json:"settings"`
	Metadata     TemplateMetadata `json:"metadata"`
	Created      time.Time        `json:"created"`
	LastModified time.Time        `json:"lastModified"`
	CreatedBy    string           `json:"createdBy,omitempty"`
	ModifiedBy   string           `json:"modifiedBy,omitempty"`
	Version      int64            `json:"version"`
}

const DefaultTemplateWidth = 600

// NewTemplate creates an empty template with sensible global defaults.
func NewTemplate(name string) *Template {
	now := time.Now().UTC()
	return &Template{
		ID:         NewTemplateID(),
		Name:       name,
		Subject:    "",
		Components: []*ComponentNode{},
		GlobalStyles: GlobalStyles{
			Container: ContainerStyles{
				BackgroundColor:        "#f4f4f5",
				ContentBackgroundColor: "#ffffff",
			},
			Colors: ColorPalette{
				Primary:   "#2563eb",
				Secondary: "#64748b",
				Accent:    "#f59e0b",
				Text:      "#1f2937",
				Muted:     "#6b7280",
				Link:      "#2563eb",
			},
			Typography: TypographyScale{
				FontFamily:     "Helvetica, Arial, sans-serif",
				BaseFontSize:   "16px",
				BaseLineHeight: "1.5",
				HeadingSizes: map[string]string{
					"h1": "32px",
					"h2": "24px",
					"h3": "20px",
					"h4": "16px",
				},
			},
			Responsive: ResponsiveSettings{
				MobileBreakpoint: "480px",
				TabletBreakpoint: "768px",
			},
		},
		Settings: TemplateSettings{
			Width:     DefaultTemplateWidth,
			Direction: "ltr",
		},
		Metadata:     TemplateMetadata{Components: 0},
		Created:      now,
		LastModified: now,
		Version:      1,
	}
}

// Clone deep-copies the template, node ids included. History depends on
// clones never sharing node references with the original.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Components = CloneNodes(t.Components)
	out.GlobalStyles = t.GlobalStyles.clone()
	out.Settings.MergeTags = append([]Variable(nil), t.Settings.MergeTags...)
	out.Metadata.Changelog = cloneChanges(t.Metadata.Changelog)
	return &out
}

func cloneChanges(changes []Change) []Change {
	if changes == nil {
		return nil
	}
	out := make([]Change, len(changes))
	for i, c := range changes {
		if c.Data != nil {
			data := make(map[string]interface{}, len(c.Data))
			for k, v := range c.Data {
				data[k] = v
			}
			c.Data = data
		}
		out[i] = c
	}
	return out
}

func (g GlobalStyles) clone() GlobalStyles {
	out := g
	out.Spacing = cloneStringMap(g.Spacing)
	out.BorderRadius = cloneStringMap(g.BorderRadius)
	out.Shadows = cloneStringMap(g.Shadows)
	out.Typography.HeadingSizes = cloneStringMap(g.Typography.HeadingSizes)
	return out
}

// Validate checks aggregate invariants. Mutation functions preserve these,
// so validation runs at construction and load boundaries only.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("invalid template: id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("invalid template: name is required")
	}
	if len(t.Name) > 255 {
		return fmt.Errorf("invalid template: name length must be between 1 and 255")
	}
	if len(t.Subject) > 255 {
		return fmt.Errorf("invalid template: subject length must be between 1 and 255")
	}
	if t.Version <= 0 {
		return fmt.Errorf("invalid template: version must be positive")
	}
	if t.Settings.Width <= 0 {
		return fmt.Errorf("invalid template: settings.width must be positive")
	}
	if t.Settings.Direction != "" && t.Settings.Direction != "ltr" && t.Settings.Direction != "rtl" {
		return fmt.Errorf("invalid template: settings.direction must be ltr or rtl")
	}
	seenKeys := map[string]bool{}
	for i := range t.Settings.MergeTags {
		v := &t.Settings.MergeTags[i]
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid template: %w", err)
		}
		if seenKeys[v.Key] {
			return fmt.Errorf("invalid template: duplicate merge tag key %q", v.Key)
		}
		seenKeys[v.Key] = true
	}

	if got, want := t.Metadata.Components, CountNodes(t.Components); got != want {
		return fmt.Errorf("invalid template: metadata.components is %d, tree holds %d nodes", got, want)
	}

	ids := map[string]bool{}
	duplicate := ""
	WalkTree(t.Components, func(node *ComponentNode) bool {
		if node.ID == "" {
			duplicate = "(empty id)"
			return false
		}
		if ids[node.ID] {
			duplicate = node.ID
			return false
		}
		ids[node.ID] = true
		return true
	})
	if duplicate != "" {
		return fmt.Errorf("invalid template: duplicate node id %s", duplicate)
	}

	return nil
}

// NodeCount returns the true recursive node count of the tree.
func (t *Template) NodeCount() int {
	return CountNodes(t.Components)
}

// touch stamps a mutated copy with a new version and modification time.
func (t *Template) touch() {
	t.Version++
	t.LastModified = time.Now().UTC()
	t.Metadata.Components = CountNodes(t.Components)
}

// requiredDocumentFields are checked on raw JSON before the document enters
// the core. Malformed documents fail hard at the boundary; the core does not
// defensively re-validate on every call.
var requiredDocumentFields = []string{"id", "name", "components", "settings", "metadata"}

// LoadTemplate parses a persisted JSON document into a Template. Missing
// required fields or a broken tree are rejected before the core sees the
// value.
func LoadTemplate(data []byte) (*Template, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("malformed template document: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	for _, field := range requiredDocumentFields {
		if !doc.Get(field).Exists() {
			return nil, fmt.Errorf("malformed template document: missing required field %q", field)
		}
	}

	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("malformed template document: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarshalDocument serializes a template to its canonical JSON document form.
func (t *Template) MarshalDocument() ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template %s: %w", t.ID, err)
	}
	return data, nil
}

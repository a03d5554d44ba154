package emailbuilder

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ComponentType identifies the kind of widget a node renders as.
type ComponentType string

const (
	ComponentContainer   ComponentType = "container"
	ComponentRow         ComponentType = "row"
	ComponentColumn      ComponentType = "column"
	ComponentColumns     ComponentType = "columns"
	ComponentText        ComponentType = "text"
	ComponentHeading     ComponentType = "heading"
	ComponentHeader      ComponentType = "header"
	ComponentFooter      ComponentType = "footer"
	ComponentImage       ComponentType = "image"
	ComponentButton      ComponentType = "button"
	ComponentDivider     ComponentType = "divider"
	ComponentSpacer      ComponentType = "spacer"
	ComponentSocial      ComponentType = "social"
	ComponentVideo       ComponentType = "video"
	ComponentHTML        ComponentType = "html"
	ComponentTimer       ComponentType = "timer"
	ComponentProduct     ComponentType = "product"
	ComponentTestimonial ComponentType = "testimonial"
	ComponentPricing     ComponentType = "pricing"
	ComponentGallery     ComponentType = "gallery"
	ComponentForm        ComponentType = "form"
	ComponentSurvey      ComponentType = "survey"

	// AMP4EMAIL-specific widgets.
	ComponentAmpCarousel  ComponentType = "amp-carousel"
	ComponentAmpAccordion ComponentType = "amp-accordion"
	ComponentAmpForm      ComponentType = "amp-form"
	ComponentAmpList      ComponentType = "amp-list"
)

// AllComponentTypes lists every known component type. The default-content
// table in defaults.go must cover each entry.
var AllComponentTypes = []ComponentType{
	ComponentContainer, ComponentRow, ComponentColumn, ComponentColumns,
	ComponentText, ComponentHeading, ComponentHeader, ComponentFooter,
	ComponentImage, ComponentButton, ComponentDivider, ComponentSpacer,
	ComponentSocial, ComponentVideo, ComponentHTML, ComponentTimer,
	ComponentProduct, ComponentTestimonial, ComponentPricing,
	ComponentGallery, ComponentForm, ComponentSurvey,
	ComponentAmpCarousel, ComponentAmpAccordion, ComponentAmpForm,
	ComponentAmpList,
}

// IsContainerType reports whether nodes of this type carry children.
func IsContainerType(t ComponentType) bool {
	switch t {
	case ComponentContainer, ComponentRow, ComponentColumn, ComponentColumns:
		return true
	}
	return false
}

// IsKnownType reports whether t is part of the closed enum.
func IsKnownType(t ComponentType) bool {
	for _, known := range AllComponentTypes {
		if known == t {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable label for a component type.
func DisplayName(t ComponentType) string {
	parts := strings.Split(string(t), "-")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Content is the variant payload of a node, keyed by the node's type.
type Content interface {
	isContent()
}

type TextContent struct {
	Text string `json:"text"`
}

type HeadingContent struct {
	Text  string `json:"text"`
	Level string `json:"level,omitempty"` // h1..h4
}

type HeaderContent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

type FooterContent struct {
	Content         string `json:"content"`
	ShowUnsubscribe bool   `json:"showUnsubscribe,omitempty"`
}

type ImageContent struct {
	Src  string `json:"src"`
	Alt  string `json:"alt,omitempty"`
	Href string `json:"href,omitempty"`
}

type ButtonContent struct {
	Text   string `json:"text"`
	Href   string `json:"href"`
	Target string `json:"target,omitempty"` // _blank, _self
}

type DividerContent struct{}

type SpacerContent struct{}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	IconURL  string `json:"iconUrl,omitempty"`
}

type SocialContent struct {
	Links []SocialLink `json:"links"`
}

type VideoContent struct {
	Src       string `json:"src"`
	PosterURL string `json:"posterUrl,omitempty"`
}

type HTMLContent struct {
	HTML string `json:"html"`
}

type TimerContent struct {
	EndsAt string `json:"endsAt"`
	Label  string `json:"label,omitempty"`
}

type ProductContent struct {
	Name     string `json:"name"`
	Price    string `json:"price,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Href     string `json:"href,omitempty"`
}

type TestimonialContent struct {
	Quote  string `json:"quote"`
	Author string `json:"author,omitempty"`
}

type PricingContent struct {
	Plan   string `json:"plan"`
	Price  string `json:"price,omitempty"`
	Period string `json:"period,omitempty"`
}

type GalleryContent struct {
	Images []ImageContent `json:"images"`
}

type FormContent struct {
	Action string `json:"action"`
	Label  string `json:"label,omitempty"`
}

type SurveyContent struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

type ContainerContent struct{}

type AmpCarouselContent struct {
	Images []ImageContent `json:"images"`
	Width  string         `json:"width,omitempty"`
	Height string         `json:"height,omitempty"`
}

type AccordionSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type AmpAccordionContent struct {
	Sections []AccordionSection `json:"sections"`
}

type AmpFormContent struct {
	Action string `json:"action"`
	Method string `json:"method,omitempty"`
}

type AmpListContent struct {
	Src          string `json:"src"`
	ItemTemplate string `json:"itemTemplate,omitempty"`
}

// RawContent carries the payload of unrecognized component types so a
// document with unknown nodes still round-trips losslessly.
type RawContent map[string]interface{}

func (TextContent) isContent()        {}
func (HeadingContent) isContent()     {}
func (HeaderContent) isContent()      {}
func (FooterContent) isContent()      {}
func (ImageContent) isContent()       {}
func (ButtonContent) isContent()      {}
func (DividerContent) isContent()     {}
func (SpacerContent) isContent()      {}
func (SocialContent) isContent()      {}
func (VideoContent) isContent()       {}
func (HTMLContent) isContent()        {}
func (TimerContent) isContent()       {}
func (ProductContent) isContent()     {}
func (TestimonialContent) isContent() {}
func (PricingContent) isContent()     {}
func (GalleryContent) isContent()     {}
func (FormContent) isContent()        {}
func (SurveyContent) isContent()      {}
func (ContainerContent) isContent()   {}
func (AmpCarouselContent) isContent() {}
func (AmpAccordionContent) isContent() {}
func (AmpFormContent) isContent()     {}
func (AmpListContent) isContent()     {}
func (RawContent) isContent()         {}

// NodeSettings holds non-structural flags consumed by the renderer and the
// editing surface.
type NodeSettings struct {
	HideOnMobile      bool              `json:"hideOnMobile,omitempty"`
	HideOnDesktop     bool              `json:"hideOnDesktop,omitempty"`
	SkipAmpValidation bool              `json:"skipAmpValidation,omitempty"`
	CustomAttributes  map[string]string `json:"customAttributes,omitempty"`
}

// ComponentNode is a single node in the template tree. A child node is
// exclusively owned by its parent slice; duplication always deep-clones and
// reassigns ids so no node is ever aliased between two trees.
type ComponentNode struct {
	ID       string           `json:"id"`
	Type     ComponentType    `json:"type"`
	Name     string           `json:"name,omitempty"`
	Order    int              `json:"order"`
	Locked   bool             `json:"locked,omitempty"`
	Hidden   bool             `json:"hidden,omitempty"`
	Content  Content          `json:"content,omitempty"`
	Styles   StyleSet         `json:"styles,omitempty"`
	Settings NodeSettings     `json:"settings,omitempty"`
	Children []*ComponentNode `json:"children,omitempty"`
}

// componentNodeJSON mirrors ComponentNode with a raw content payload so the
// variant shape can be decoded after the type discriminator is known.
type componentNodeJSON struct {
	ID       string           `json:"id"`
	Type     ComponentType    `json:"type"`
	Name     string           `json:"name,omitempty"`
	Order    int              `json:"order"`
	Locked   bool             `json:"locked,omitempty"`
	Hidden   bool             `json:"hidden,omitempty"`
	Content  json.RawMessage  `json:"content,omitempty"`
	Styles   StyleSet         `json:"styles,omitempty"`
	Settings NodeSettings     `json:"settings,omitempty"`
	Children []*ComponentNode `json:"children,omitempty"`
}

// UnmarshalJSON decodes a node, dispatching the content payload on the type
// discriminator.
func (n *ComponentNode) UnmarshalJSON(data []byte) error {
	var aux componentNodeJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal component node: %w", err)
	}

	n.ID = aux.ID
	n.Type = aux.Type
	n.Name = aux.Name
	n.Order = aux.Order
	n.Locked = aux.Locked
	n.Hidden = aux.Hidden
	n.Styles = aux.Styles
	n.Settings = aux.Settings
	n.Children = aux.Children

	if len(aux.Content) > 0 {
		content, err := decodeContent(aux.Type, aux.Content)
		if err != nil {
			return fmt.Errorf("failed to unmarshal content for node %s: %w", aux.ID, err)
		}
		n.Content = content
	}

	return nil
}

// decodeContent decodes a raw content payload into the typed variant for the
// given component type. Unknown types decode into RawContent so nothing is
// dropped.
func decodeContent(t ComponentType, data json.RawMessage) (Content, error) {
	unmarshal := func(target Content) (Content, error) {
		if err := json.Unmarshal(data, target); err != nil {
			return nil, err
		}
		return derefContent(target), nil
	}

	switch t {
	case ComponentText:
		return unmarshal(&TextContent{})
	case ComponentHeading:
		return unmarshal(&HeadingContent{})
	case ComponentHeader:
		return unmarshal(&HeaderContent{})
	case ComponentFooter:
		return unmarshal(&FooterContent{})
	case ComponentImage:
		return unmarshal(&ImageContent{})
	case ComponentButton:
		return unmarshal(&ButtonContent{})
	case ComponentDivider:
		return unmarshal(&DividerContent{})
	case ComponentSpacer:
		return unmarshal(&SpacerContent{})
	case ComponentSocial:
		return unmarshal(&SocialContent{})
	case ComponentVideo:
		return unmarshal(&VideoContent{})
	case ComponentHTML:
		return unmarshal(&HTMLContent{})
	case ComponentTimer:
		return unmarshal(&TimerContent{})
	case ComponentProduct:
		return unmarshal(&ProductContent{})
	case ComponentTestimonial:
		return unmarshal(&TestimonialContent{})
	case ComponentPricing:
		return unmarshal(&PricingContent{})
	case ComponentGallery:
		return unmarshal(&GalleryContent{})
	case ComponentForm:
		return unmarshal(&FormContent{})
	case ComponentSurvey:
		return unmarshal(&SurveyContent{})
	case ComponentContainer, ComponentRow, ComponentColumn, ComponentColumns:
		return unmarshal(&ContainerContent{})
	case ComponentAmpCarousel:
		return unmarshal(&AmpCarouselContent{})
	case ComponentAmpAccordion:
		return unmarshal(&AmpAccordionContent{})
	case ComponentAmpForm:
		return unmarshal(&AmpFormContent{})
	case ComponentAmpList:
		return unmarshal(&AmpListContent{})
	default:
		raw := RawContent{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
}

// derefContent turns the pointer used during decoding back into the value
// form stored on the node.
func derefContent(c Content) Content {
	switch v := c.(type) {
	case *TextContent:
		return *v
	case *HeadingContent:
		return *v
	case *HeaderContent:
		return *v
	case *FooterContent:
		return *v
	case *ImageContent:
		return *v
	case *ButtonContent:
		return *v
	case *DividerContent:
		return *v
	case *SpacerContent:
		return *v
	case *SocialContent:
		return *v
	case *VideoContent:
		return *v
	case *HTMLContent:
		return *v
	case *TimerContent:
		return *v
	case *ProductContent:
		return *v
	case *TestimonialContent:
		return *v
	case *PricingContent:
		return *v
	case *GalleryContent:
		return *v
	case *FormContent:
		return *v
	case *SurveyContent:
		return *v
	case *ContainerContent:
		return *v
	case *AmpCarouselContent:
		return *v
	case *AmpAccordionContent:
		return *v
	case *AmpFormContent:
		return *v
	case *AmpListContent:
		return *v
	default:
		return c
	}
}

// mergeContent shallow-merges a partial content map into the node's existing
// typed content, preserving fields the patch does not mention. The merge goes
// through JSON so variant shapes stay authoritative.
func mergeContent(t ComponentType, existing Content, patch map[string]interface{}) (Content, error) {
	merged := map[string]interface{}{}
	if existing != nil {
		data, err := json.Marshal(existing)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal existing content: %w", err)
		}
		if err := json.Unmarshal(data, &merged); err != nil {
			return nil, fmt.Errorf("failed to flatten existing content: %w", err)
		}
	}
	for k, v := range patch {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged content: %w", err)
	}
	return decodeContent(t, data)
}

// mergeSettings shallow-merges a partial settings map into existing settings.
func mergeSettings(existing NodeSettings, patch map[string]interface{}) (NodeSettings, error) {
	merged := map[string]interface{}{}
	data, err := json.Marshal(existing)
	if err != nil {
		return existing, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := json.Unmarshal(data, &merged); err != nil {
		return existing, fmt.Errorf("failed to flatten settings: %w", err)
	}
	for k, v := range patch {
		merged[k] = v
	}

	data, err = json.Marshal(merged)
	if err != nil {
		return existing, fmt.Errorf("failed to marshal merged settings: %w", err)
	}
	var result NodeSettings
	if err := json.Unmarshal(data, &result); err != nil {
		return existing, fmt.Errorf("failed to unmarshal merged settings: %w", err)
	}
	return result, nil
}

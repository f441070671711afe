package model

import "errors"

var ErrTypeNotAllowed = errors.New("post type not allowed for content type")

// attachableTypes are the post types a content type may be attached to.
var attachableTypes = map[PostType]bool{
	PostTypePost:     true,
	PostTypePage:     true,
	PostTypeFragment: true,
}

// ContentType describes the schema a post's structured fields follow. The
// core treats it as opaque beyond its id and the allowed-type constraint.
type ContentType struct {
	ID           string
	Name         string
	AllowedTypes []PostType
}

// ContentTypeRegistry is an injected capability mapping content-type ids to
// their descriptors. It is passed into the services rather than looked up
// from ambient state.
type ContentTypeRegistry map[string]*ContentType

// Validate checks that a post of the given type may carry the content type.
// Unknown ids are rejected only when a registry is present.
func (r ContentTypeRegistry) Validate(contentTypeID string, t PostType) error {
	if contentTypeID == "" {
		return nil
	}
	if !attachableTypes[t] {
		return ErrTypeNotAllowed
	}
	if r == nil {
		return nil
	}
	ct, ok := r[contentTypeID]
	if !ok {
		return ErrTypeNotAllowed
	}
	if len(ct.AllowedTypes) == 0 {
		return nil
	}
	for _, allowed := range ct.AllowedTypes {
		if allowed == t {
			return nil
		}
	}
	return ErrTypeNotAllowed
}

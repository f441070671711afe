package mapper

import "github.com/elcodo/burdy/internal/model"

type PublicAsset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

func PublicAssetFromModel(asset *model.Asset) *PublicAsset {
	return &PublicAsset{
		ID:       asset.ID,
		Name:     asset.Name,
		Path:     asset.Path,
		MimeType: asset.MimeType,
		Size:     asset.Size,
	}
}

// Fields returns the asset's public shape as a map, ready to merge into a
// content node in place of an asset reference marker.
func (a *PublicAsset) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"id":   a.ID,
		"name": a.Name,
		"path": a.Path,
	}
	if a.MimeType != "" {
		fields["mimeType"] = a.MimeType
	}
	if a.Size != 0 {
		fields["size"] = a.Size
	}
	return fields
}

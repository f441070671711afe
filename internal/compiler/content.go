package compiler

import (
	"encoding/json"
	"strconv"

	"github.com/elcodo/burdy/internal/compress"
	"github.com/elcodo/burdy/internal/model"
)

// Reference markers inside a content tree. A node shaped like
// {"$post": "<id>", ...} links another post, {"$asset": "<id>", ...} links an
// asset; sibling keys on an asset node are partial data preserved through
// substitution.
const (
	postRefKey  = "$post"
	assetRefKey = "$asset"
)

// refSite is one reference occurrence: its dot-notation content path, the
// target id, the marker node itself and a setter replacing the node in its
// container.
type refSite struct {
	path string
	id   string
	node map[string]interface{}
	set  func(v interface{})
}

// collectRefs walks the content tree and gathers post and asset reference
// sites. Marker nodes are leaves; the walk does not descend into them.
func collectRefs(content map[string]interface{}) (posts, assets []*refSite) {
	walkNode(content, "", nil, &posts, &assets)
	return posts, assets
}

func walkNode(node interface{}, path string, set func(v interface{}), posts, assets *[]*refSite) {
	switch n := node.(type) {
	case map[string]interface{}:
		if id, ok := n[postRefKey].(string); ok && id != "" {
			*posts = append(*posts, &refSite{path: path, id: id, node: n, set: set})
			return
		}
		if id, ok := n[assetRefKey].(string); ok && id != "" {
			*assets = append(*assets, &refSite{path: path, id: id, node: n, set: set})
			return
		}
		for key, value := range n {
			k := key
			walkNode(value, childPath(path, k), func(v interface{}) { n[k] = v }, posts, assets)
		}
	case []interface{}:
		for index, value := range n {
			i := index
			walkNode(value, childPath(path, strconv.Itoa(i)), func(v interface{}) { n[i] = v }, posts, assets)
		}
	}
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// DecodeContent decodes a post's stored content through the codec recorded
// on the row and parses it into a tree.
func DecodeContent(post *model.Post) (map[string]interface{}, error) {
	content := map[string]interface{}{}
	if post.Content == "" {
		return content, nil
	}

	data, err := compress.ForName(post.Compression).Decode([]byte(post.Content))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return content, nil
	}

	if err := json.Unmarshal(data, &content); err != nil {
		return nil, err
	}
	return content, nil
}

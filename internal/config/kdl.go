package config

import "github.com/sblinch/kdl-go/document"

// mergeKDL walks the parsed KDL document and overlays recognized
// nodes onto cfg, leaving any field the document doesn't mention at
// its Default() value. Unrecognized top-level nodes are ignored
// rather than rejected, matching the teacher config loader's
// forward-compatible merge behavior.
func mergeKDL(cfg *Config, doc *document.Document) {
	for _, node := range doc.Nodes {
		switch nodeName(node) {
		case "project":
			for _, child := range node.Children {
				if nodeName(child) == "root" {
					if v := firstArgString(child); v != "" {
						cfg.Project.Root = v
					}
				}
			}
		case "index":
			for _, child := range node.Children {
				switch nodeName(child) {
				case "workers":
					if v, ok := firstArgInt(child); ok {
						cfg.Index.Workers = v
					}
				case "max-content-bytes":
					if v, ok := firstArgInt(child); ok {
						cfg.Index.MaxContentBytes = int64(v)
					}
				case "stemming":
					if v, ok := firstArgBool(child); ok {
						cfg.Index.Stemming = v
					}
				case "exclude":
					if v := firstArgString(child); v != "" {
						cfg.Index.Exclude = append(cfg.Index.Exclude, v)
					}
				}
			}
		case "store":
			for _, child := range node.Children {
				switch nodeName(child) {
				case "path":
					if v := firstArgString(child); v != "" {
						cfg.Store.Path = v
					}
				case "vacuum-interval-minutes":
					if v, ok := firstArgInt(child); ok {
						cfg.Store.VacuumIntervalMinutes = v
					}
				}
			}
		case "bloom":
			for _, child := range node.Children {
				switch nodeName(child) {
				case "capacity":
					if v, ok := firstArgInt(child); ok {
						cfg.Bloom.Capacity = uint64(v)
					}
				case "error-rate":
					if v, ok := firstArgFloat(child); ok {
						cfg.Bloom.ErrorRate = v
					}
				}
			}
		case "search":
			for _, child := range node.Children {
				switch nodeName(child) {
				case "cache-size":
					if v, ok := firstArgInt(child); ok {
						cfg.Search.CacheSize = v
					}
				case "fuzzy-threshold":
					if v, ok := firstArgFloat(child); ok {
						cfg.Search.FuzzyThreshold = v
					}
				case "default-limit":
					if v, ok := firstArgInt(child); ok {
						cfg.Search.DefaultLimit = v
					}
				}
			}
		case "watch":
			for _, child := range node.Children {
				if nodeName(child) == "debounce-ms" {
					if v, ok := firstArgInt(child); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstArgString(n *document.Node) string {
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			return s
		}
	}
	return ""
}

func firstArgInt(n *document.Node) (int, bool) {
	for _, a := range n.Arguments {
		switch v := a.Value.(type) {
		case int64:
			return int(v), true
		case float64:
			return int(v), true
		}
	}
	return 0, false
}

func firstArgFloat(n *document.Node) (float64, bool) {
	for _, a := range n.Arguments {
		switch v := a.Value.(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}

func firstArgBool(n *document.Node) (bool, bool) {
	for _, a := range n.Arguments {
		if b, ok := a.Value.(bool); ok {
			return b, true
		}
	}
	return false, false
}

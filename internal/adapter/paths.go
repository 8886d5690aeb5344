package adapter

import "sort"

func sortedPaths(paths ...string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out
}

func sortedDocuments(docs ...Document) []Document {
	out := append([]Document(nil), docs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

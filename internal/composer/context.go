// Package composer turns retrieved documents into the bounded context block
// and system prompts used to ground the language model.
package composer

import (
	"fmt"
	"strings"

	"github.com/kalambet/docent/internal/retrieval"
)

// Placeholders used when both language variants of a field are empty.
const (
	placeholderTitle       = "未命名作品"
	placeholderWorkDesc    = "暂无作品简介"
	placeholderArtistIntro = "暂无作者简介"
)

// BuildContext formats docs into one block per document, blank-line
// separated, preserving input order (the retriever's relevance order).
// Each semantic slot takes the first non-empty of the Chinese and English
// variants, falling back to a fixed placeholder. Pure and deterministic:
// the same input always yields byte-identical output.
func BuildContext(docs []retrieval.Document) string {
	blocks := make([]string, len(docs))
	for i, d := range docs {
		title := firstNonEmpty(d.WorkTitleCN, d.WorkTitleEN, placeholderTitle)
		desc := firstNonEmpty(d.WorkDescCN, d.WorkDescEN, placeholderWorkDesc)
		intro := firstNonEmpty(d.ArtistIntroCN, d.ArtistIntroEN, placeholderArtistIntro)

		blocks[i] = fmt.Sprintf("【段落%d】\n作品：%s\n作者：%s\n作者简介：%s\n作品简介：%s",
			i+1, title, d.Artist, intro, desc)
	}
	return strings.Join(blocks, "\n\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

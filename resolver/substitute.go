package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/quire/model"
	"github.com/tsawler/quire/paginate"
)

// substitute returns the block with PAGE/NUMPAGES runs replaced by literal
// text. Blocks without tokens pass through untouched; blocks with tokens are
// cloned, never mutated in place.
func (r *Resolver) substitute(b model.Block, pageNumber, totalPages int) model.Block {
	p, ok := b.(*model.Paragraph)
	if !ok || !p.HasTokens() {
		return b
	}

	cp := p.Clone()
	var resolved strings.Builder
	for i := range cp.Runs {
		switch cp.Runs[i].Token {
		case model.TokenPage:
			cp.Runs[i].Text = strconv.Itoa(pageNumber)
		case model.TokenNumPages:
			cp.Runs[i].Text = strconv.Itoa(totalPages)
		default:
			continue
		}
		resolved.WriteString(cp.Runs[i].Text)
		resolved.WriteByte(';')
	}
	r.trackResolved(fmt.Sprintf("%s@%d", cp.BlockID, pageNumber), resolved.String())
	return cp
}

// trackResolved records the resolved text for an instance and counts it as
// affected when it changed since the previous resolution. Unchanged
// instances need no re-measurement.
func (r *Resolver) trackResolved(key, text string) {
	if prev, ok := r.lastResolved[model.BlockID(key)]; !ok || prev != text {
		r.affected++
		r.lastResolved[model.BlockID(key)] = text
	}
}

// hasTokens reports whether the document carries any resolvable token:
// always header/footer content, body paragraphs only when body resolution
// is enabled.
func (r *Resolver) hasTokens(doc Doc) bool {
	for si := range doc.Headers {
		for _, def := range []*model.HeaderFooterDef{doc.Headers[si].Header, doc.Headers[si].Footer} {
			if def == nil {
				continue
			}
			for _, blocks := range [][]model.Block{def.Default, def.First, def.Even, def.Odd} {
				if blocksHaveTokens(blocks) {
					return true
				}
			}
		}
	}
	if r.bodyTokens && doc.Arena != nil {
		return blocksHaveTokens(doc.Arena.Blocks())
	}
	return false
}

func blocksHaveTokens(blocks []model.Block) bool {
	for _, b := range blocks {
		if p, ok := b.(*model.Paragraph); ok && p.HasTokens() {
			return true
		}
	}
	return false
}

// substituteBody builds a derived pagination input in which body paragraphs
// carrying tokens are replaced by resolved clones, numbered per the page
// they landed on in the previous pass. Blocks without tokens are shared,
// not copied.
func (r *Resolver) substituteBody(doc Doc, layout *model.Layout) paginate.Doc {
	total := layout.PageCount()
	blocks := doc.Arena.Blocks()
	derived := make([]model.Block, len(blocks))
	changed := false

	for i, b := range blocks {
		derived[i] = b
		p, ok := b.(*model.Paragraph)
		if !ok || !p.HasTokens() {
			continue
		}
		pageNo := layout.PageOf(p.BlockID) + 1
		if pageNo == 0 {
			pageNo = 1
		}
		derived[i] = r.substitute(p, pageNo, total)
		changed = true
	}
	if !changed {
		return paginate.Doc{Arena: doc.Arena, Sections: doc.Sections}
	}

	arena, err := model.NewArena(derived)
	if err != nil {
		// Ids are carried over from a valid arena; rebuilding cannot
		// introduce duplicates. Fall back to the originals if it somehow does.
		return paginate.Doc{Arena: doc.Arena, Sections: doc.Sections}
	}
	return paginate.Doc{Arena: arena, Sections: doc.Sections}
}

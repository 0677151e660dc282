package chunker

import (
	"strconv"
	"strings"

	"learnassist/internal/domain"
)

const pageSeparator = "\n\n"

// joined is the concatenation of non-blank page texts with a record of
// where each page begins, in runes.
type joined struct {
	runes  []rune
	starts []int
	pages  []int
}

func joinPages(pages []domain.Page) joined {
	var j joined
	sep := []rune(pageSeparator)
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if len(j.runes) > 0 {
			j.runes = append(j.runes, sep...)
		}
		j.starts = append(j.starts, len(j.runes))
		j.pages = append(j.pages, p.Number)
		j.runes = append(j.runes, []rune(text)...)
	}
	return j
}

// pageAt returns the page number that contains rune offset off.
func (j joined) pageAt(off int) int {
	page := 0
	for i, s := range j.starts {
		if s > off {
			break
		}
		page = j.pages[i]
	}
	return page
}

func chunkID(documentID string, idx int) string {
	return documentID + ":" + strconv.Itoa(idx)
}

package services

import (
	"regexp"
	"strings"

	"pdf-rag-service/models"
)

// pageMarkerPattern matches the page tags emitted by the PDF extractor.
// The marker ordinal is positional: the Nth segment after splitting is page N.
var pageMarkerPattern = regexp.MustCompile(`=== PAGE \d+ ===`)

// Chunker splits page-tagged document text into overlapping chunks sized for
// embedding. Chunk ids are dense and global across the whole document.
type Chunker struct {
	chunkSize      int
	overlapWords   int
	pageRegex      *regexp.Regexp
	paragraphRegex *regexp.Regexp
	spaceRegex     *regexp.Regexp
}

// NewChunker creates a chunker with the given chunk size (characters) and
// overlap (words carried from one chunk into the next).
func NewChunker(chunkSize, overlapWords int) *Chunker {
	return &Chunker{
		chunkSize:      chunkSize,
		overlapWords:   overlapWords,
		pageRegex:      pageMarkerPattern,
		paragraphRegex: regexp.MustCompile(`\n\s*\n`),
		spaceRegex:     regexp.MustCompile(`\s+`),
	}
}

// Chunk splits text into page-attributed chunks. Text before the first page
// marker is a preamble and is dropped. Within a page, paragraphs accumulate
// greedily until the next one would push the buffer past chunkSize; the new
// buffer is then seeded with the last overlapWords words of the closed chunk.
// A single paragraph longer than chunkSize is kept whole.
func (ck *Chunker) Chunk(text string) []models.Chunk {
	var chunks []models.Chunk

	segments := ck.pageRegex.Split(text, -1)
	if len(segments) < 2 {
		return chunks
	}

	for page, segment := range segments[1:] {
		pageNum := page + 1

		paragraphs := ck.splitParagraphs(segment)
		if len(paragraphs) == 0 {
			continue
		}

		current := ""
		for _, para := range paragraphs {
			if len(current)+len(para) > ck.chunkSize && current != "" {
				chunks = append(chunks, models.Chunk{
					Text:    strings.TrimSpace(current),
					Page:    pageNum,
					ChunkID: len(chunks),
				})

				words := strings.Fields(current)
				if len(words) > ck.overlapWords {
					current = strings.Join(words[len(words)-ck.overlapWords:], " ") + " " + para
				} else {
					current = para
				}
				continue
			}

			if current == "" {
				current = para
			} else {
				current += "\n\n" + para
			}
		}

		if strings.TrimSpace(current) != "" {
			chunks = append(chunks, models.Chunk{
				Text:    strings.TrimSpace(current),
				Page:    pageNum,
				ChunkID: len(chunks),
			})
		}
	}

	return chunks
}

// splitParagraphs breaks a page segment on blank lines and normalizes each
// paragraph's internal whitespace to single spaces.
func (ck *Chunker) splitParagraphs(segment string) []string {
	raw := ck.paragraphRegex.Split(segment, -1)

	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(ck.spaceRegex.ReplaceAllString(p, " "))
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

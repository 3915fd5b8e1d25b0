package graph

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/41rumble/great-fire-smyrna-rag/internal/util"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/common"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
)

// minEpisodeChars is the floor below which a chunk carries too little
// narrative to extract from; such fragments are folded into a neighbor.
const minEpisodeChars = 100

var chapterHeadingRe = regexp.MustCompile(`(?m)^[ \t]*(?:CHAPTER|Chapter)[ \t]+([0-9]+|[IVXLCDMivxlcdm]+)\.?[ \t]*[:\-]?[ \t]*(\S.*)?$`)

type bookChapter struct {
	number int
	title  string
	text   string
}

// splitIntoChapters segments a book on CHAPTER headings. Text before the
// first heading, and books with no headings at all, become chapter 1 with an
// empty title.
func splitIntoChapters(text string) []bookChapter {
	matches := chapterHeadingRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []bookChapter{{number: 1, text: text}}
	}

	var chapters []bookChapter

	preamble := strings.TrimSpace(text[:matches[0][0]])
	if preamble != "" {
		chapters = append(chapters, bookChapter{number: 1, text: preamble})
	}

	for i, m := range matches {
		numberToken := text[m[2]:m[3]]
		title := ""
		if m[4] >= 0 {
			title = strings.TrimSpace(text[m[4]:m[5]])
		}

		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}

		number := parseChapterNumber(numberToken)
		if number == 0 {
			number = len(chapters) + 1
		}

		chapters = append(chapters, bookChapter{
			number: number,
			title:  title,
			text:   strings.TrimSpace(text[bodyStart:bodyEnd]),
		})
	}

	return chapters
}

func parseChapterNumber(token string) int {
	if n, err := strconv.Atoi(token); err == nil {
		return n
	}
	return parseRomanNumeral(strings.ToUpper(token))
}

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

func parseRomanNumeral(token string) int {
	total := 0
	prev := 0
	for i := len(token) - 1; i >= 0; i-- {
		value, ok := romanValues[token[i]]
		if !ok {
			return 0
		}
		if value < prev {
			total -= value
		} else {
			total += value
			prev = value
		}
	}
	return total
}

// transformIntoEpisodes chunks a book's text into episodes of roughly
// targetWords words, never splitting inside a paragraph and never crossing a
// chapter boundary. Fragments shorter than minEpisodeChars are folded into
// the preceding episode of the same chapter.
func transformIntoEpisodes(sourceID string, text string, targetWords int) []common.Episode {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if targetWords <= 0 {
		targetWords = defaultTargetWords
	}

	var episodes []common.Episode

	for _, chapter := range splitIntoChapters(text) {
		paragraphs := splitIntoParagraphs(chapter.text)
		if len(paragraphs) == 0 {
			continue
		}

		chapterStart := len(episodes)
		sequence := 1
		var buf []string
		bufWords := 0

		flush := func() {
			if len(buf) == 0 {
				return
			}
			content := strings.Join(buf, "\n\n")
			buf = nil
			bufWords = 0

			if len(content) < minEpisodeChars && len(episodes) > chapterStart {
				prev := &episodes[len(episodes)-1]
				prev.Content = prev.Content + "\n\n" + content
				prev.WordCount = util.CountWords(prev.Content)
				return
			}
			if len(content) < minEpisodeChars {
				logger.Warn("[Graph][Chunk] Dropping fragment below minimum size",
					"source", sourceID, "chapter", chapter.number, "chars", len(content))
				return
			}

			name := fmt.Sprintf("%s-ch%d-%d", sourceID, chapter.number, sequence)
			episodes = append(episodes, common.Episode{
				ID:       name,
				Name:     name,
				SourceID: sourceID,
				Chapter: common.Chapter{
					Number:    chapter.number,
					Title:     chapter.title,
					WordCount: util.CountWords(chapter.text),
				},
				Sequence:  sequence,
				Content:   content,
				WordCount: util.CountWords(content),
			})
			sequence++
		}

		for _, para := range paragraphs {
			paraWords := util.CountWords(para)
			// flush before the paragraph that would cross the target, so it
			// opens the next episode instead of overshooting this one
			if bufWords > 0 && bufWords+paraWords > targetWords {
				flush()
			}
			buf = append(buf, para)
			bufWords += paraWords
		}
		flush()
	}

	return episodes
}

func splitIntoParagraphs(text string) []string {
	var paragraphs []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, strings.TrimSpace(current.String()))
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, strings.TrimSpace(current.String()))
	}

	return paragraphs
}

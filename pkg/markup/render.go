// Package markup converts exported HTML fragments into Markdown-shaped text.
//
// The renderer walks the token stream of golang.org/x/net/html and keeps
// just enough structure to stay readable: paragraphs, lists, code, emphasis
// and links. Anything it does not understand is stripped down to its text
// content. Rendering is deterministic and never fails; broken markup
// degrades to plain text.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// chrome tags carry UI or wrapper content that must not leak into notes.
var chrome = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"nav":      true,
	"button":   true,
	"svg":      true,
	"template": true,
	"noscript": true,
	"iframe":   true,
	"select":   true,
}

// Render converts a markup fragment to Markdown-structured plain text.
// Plain text input passes through with whitespace normalized.
func Render(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	r := &renderer{}
	r.push("") // root frame
	r.walk(html.NewTokenizer(strings.NewReader(markup)))

	// Unwind frames left open by unbalanced markup.
	for len(r.frames) > 1 {
		r.closeLink()
	}

	return tidy(r.frames[0].b.String())
}

type listCtx struct {
	ordered bool
	index   int
}

// frame buffers output; a new frame is pushed for each open link so the
// link text can be wrapped once the closing tag arrives.
type frame struct {
	b    strings.Builder
	href string
}

type renderer struct {
	frames []*frame
	lists  []listCtx

	skip    string // chrome tag currently being skipped
	skipped int    // nesting depth of the skipped tag

	pre      bool
	preLang  string
	preInner strings.Builder
}

func (r *renderer) walk(z *html.Tokenizer) {
	for {
		switch z.Next() {
		case html.ErrorToken:
			// EOF or a tokenizer failure; either way we keep what we have.
			return
		case html.TextToken:
			r.text(string(z.Text()))
		case html.StartTagToken:
			tok := z.Token()
			r.open(tok)
		case html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "br" {
				r.nl()
			}
		case html.EndTagToken:
			tok := z.Token()
			r.close(tok.Data)
		}
	}
}

func (r *renderer) open(tok html.Token) {
	name := tok.Data

	if r.skip != "" {
		if name == r.skip {
			r.skipped++
		}
		return
	}
	if chrome[name] {
		r.skip = name
		r.skipped = 1
		return
	}

	if r.pre {
		if name == "code" && r.preLang == "" {
			r.preLang = langOf(tok)
		}
		return
	}

	switch name {
	case "p", "div", "blockquote":
		r.blank()
	case "br":
		r.nl()
	case "h1", "h2", "h3", "h4", "h5", "h6":
		r.blank()
		r.write(strings.Repeat("#", int(name[1]-'0')) + " ")
	case "ul":
		r.blank()
		r.lists = append(r.lists, listCtx{ordered: false})
	case "ol":
		r.blank()
		r.lists = append(r.lists, listCtx{ordered: true})
	case "li":
		r.nl()
		depth := len(r.lists)
		if depth == 0 {
			r.write("- ")
			return
		}
		indent := strings.Repeat("  ", depth-1)
		top := &r.lists[depth-1]
		if top.ordered {
			top.index++
			r.write(fmt.Sprintf("%s%d. ", indent, top.index))
		} else {
			r.write(indent + "- ")
		}
	case "pre":
		r.pre = true
		r.preLang = ""
		r.preInner.Reset()
	case "code":
		r.write("`")
	case "b", "strong":
		r.write("**")
	case "i", "em":
		r.write("*")
	case "a":
		r.push(attr(tok, "href"))
	}
}

func (r *renderer) close(name string) {
	if r.skip != "" {
		if name == r.skip {
			r.skipped--
			if r.skipped == 0 {
				r.skip = ""
			}
		}
		return
	}

	if r.pre {
		if name == "pre" {
			r.flushPre()
		}
		return
	}

	switch name {
	case "p", "div", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
		r.blank()
	case "ul", "ol":
		if len(r.lists) > 0 {
			r.lists = r.lists[:len(r.lists)-1]
		}
		r.blank()
	case "li":
		r.nl()
	case "code":
		r.write("`")
	case "b", "strong":
		r.write("**")
	case "i", "em":
		r.write("*")
	case "a":
		r.closeLink()
	}
}

var spaces = regexp.MustCompile(`\s+`)

func (r *renderer) text(s string) {
	if r.skip != "" {
		return
	}
	if r.pre {
		r.preInner.WriteString(s)
		return
	}
	if strings.TrimSpace(s) == "" {
		return
	}

	out := spaces.ReplaceAllString(s, " ")
	cur := r.cur()
	if endsWithNewline(cur.b.String()) {
		out = strings.TrimLeft(out, " ")
	}
	cur.b.WriteString(out)
}

func (r *renderer) flushPre() {
	r.pre = false
	code := strings.Trim(r.preInner.String(), "\n")

	r.blank()
	r.write("```" + r.preLang + "\n")
	if code != "" {
		r.write(code + "\n")
	}
	r.write("```")
	r.blank()
}

// langOf reads a language hint from class="language-x" style attributes.
func langOf(tok html.Token) string {
	for _, c := range strings.Fields(attr(tok, "class")) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok {
			return lang
		}
		if lang, ok := strings.CutPrefix(c, "lang-"); ok {
			return lang
		}
	}
	return ""
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// --- frame helpers ---

func (r *renderer) push(href string) {
	r.frames = append(r.frames, &frame{href: href})
}

func (r *renderer) closeLink() {
	if len(r.frames) < 2 {
		return
	}
	top := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]

	text := strings.TrimSpace(top.b.String())
	switch {
	case text == "" && top.href == "":
		// nothing to keep
	case top.href == "":
		r.write(text)
	case text == "":
		r.write(fmt.Sprintf("[%s](%s)", top.href, top.href))
	default:
		r.write(fmt.Sprintf("[%s](%s)", text, top.href))
	}
}

func (r *renderer) cur() *frame {
	return r.frames[len(r.frames)-1]
}

func (r *renderer) write(s string) {
	r.cur().b.WriteString(s)
}

// nl ensures output continues on a fresh line.
func (r *renderer) nl() {
	s := r.cur().b.String()
	if s != "" && !endsWithNewline(s) {
		r.write("\n")
	}
}

// blank ensures a paragraph break.
func (r *renderer) blank() {
	s := r.cur().b.String()
	if s == "" {
		return
	}
	switch {
	case strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		r.write("\n")
	default:
		r.write("\n\n")
	}
}

func endsWithNewline(s string) bool {
	return strings.HasSuffix(s, "\n")
}

var (
	manyBlank = regexp.MustCompile(`\n{3,}`)
	trailWS   = regexp.MustCompile(`[ \t]+\n`)
)

func tidy(s string) string {
	s = trailWS.ReplaceAllString(s, "\n")
	s = manyBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DirectiveScriptID = "__OG_IMAGE__"

	directiveIDAttr  = `id="` + DirectiveScriptID + `"`
	directiveOpenTag = `<script id="` + DirectiveScriptID + `" type="application/json">`
	scriptOpen       = "<script"
	scriptClose      = "</script>"
)

type directiveBlock struct {
	start     int
	bodyStart int
	bodyEnd   int
	end       int
}

// RenderDirective encodes options into the script block the extractor
// understands.
func RenderDirective(opts Options) (string, error) {
	if opts == nil {
		opts = Options{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(opts); err != nil {
		return "", fmt.Errorf("encode og:image directive: %w", err)
	}

	payload := strings.TrimSuffix(buf.String(), "\n")
	payload = strings.ReplaceAll(payload, "</", "<\\/")

	return directiveOpenTag + payload + scriptClose, nil
}

// ExtractDirective finds the embedded directive and decodes it. found is
// true whenever a directive block is present, even if its payload fails to
// decode.
func ExtractDirective(html string) (opts Options, found bool, err error) {
	block, ok, err := locateDirective(html)
	if err != nil {
		return nil, true, err
	}
	if !ok {
		return nil, false, nil
	}

	payload := strings.TrimSpace(html[block.bodyStart:block.bodyEnd])
	if payload == "" {
		return nil, true, fmt.Errorf("og:image directive is empty")
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&opts); err != nil {
		return nil, true, fmt.Errorf("decode og:image directive: %w", err)
	}
	if opts == nil {
		return nil, true, fmt.Errorf("og:image directive must be an object")
	}

	return opts, true, nil
}

// StripDirective removes the directive block. Markup outside the block is
// returned byte for byte.
func StripDirective(html string) string {
	block, ok, err := locateDirective(html)
	if err != nil || !ok {
		return html
	}
	return html[:block.start] + html[block.end:]
}

func locateDirective(html string) (directiveBlock, bool, error) {
	offset := 0
	for {
		rel := strings.Index(html[offset:], directiveIDAttr)
		if rel < 0 {
			return directiveBlock{}, false, nil
		}
		idx := offset + rel
		offset = idx + len(directiveIDAttr)

		start := strings.LastIndex(html[:idx], scriptOpen)
		if start < 0 || strings.Contains(html[start:idx], ">") {
			continue
		}

		tagEnd := strings.Index(html[idx:], ">")
		if tagEnd < 0 {
			return directiveBlock{}, false, fmt.Errorf("og:image directive tag is not closed")
		}
		bodyStart := idx + tagEnd + 1

		closeIdx := strings.Index(html[bodyStart:], scriptClose)
		if closeIdx < 0 {
			return directiveBlock{}, false, fmt.Errorf("og:image directive is missing %s", scriptClose)
		}
		bodyEnd := bodyStart + closeIdx

		return directiveBlock{
			start:     start,
			bodyStart: bodyStart,
			bodyEnd:   bodyEnd,
			end:       bodyEnd + len(scriptClose),
		}, true, nil
	}
}

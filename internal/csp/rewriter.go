package csp

// rewriter.go
import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Rewriter проставляет nonce в теги документа и возвращает новый документ
// и число изменённых тегов.
type Rewriter interface {
	Rewrite(doc, nonce string, processStyles bool) (string, int)
}

// executableScriptTypes — типы <script>, которые браузер исполняет.
// Пустой или отсутствующий type тоже исполняемый.
var executableScriptTypes = map[string]struct{}{
	"text/javascript":        {},
	"module":                 {},
	"application/javascript": {},
}

// TagRewriter — потоковый проход по токенам x/net/html.
// Токенайзер сам различает комментарии, значения атрибутов и тела script/style,
// поэтому "<script" внутри строки или комментария не трогается.
// Все токены, кроме изменённых тегов, копируются байт в байт.
type TagRewriter struct{}

// InjectNonces — удобная обёртка над TagRewriter.
func InjectNonces(doc, nonce string, processStyles bool) string {
	out, _ := TagRewriter{}.Rewrite(doc, nonce, processStyles)
	return out
}

// Rewrite никогда не падает: при любой неожиданности возвращается исходный документ.
func (TagRewriter) Rewrite(doc, nonce string, processStyles bool) (out string, changed int) {
	if doc == "" || nonce == "" {
		return doc, 0
	}
	defer func() {
		if rec := recover(); rec != nil {
			out, changed = doc, 0
		}
	}()

	z := html.NewTokenizer(strings.NewReader(doc))
	var b strings.Builder
	b.Grow(len(doc) + 64)
	consumed := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		consumed += len(raw)
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.Write(raw)
			continue
		}

		// Token() приводит имя тега к нижнему регистру прямо в буфере, поэтому копируем заранее.
		orig := string(raw)
		tok := z.Token()
		if !needsNonce(tok, processStyles) {
			b.WriteString(orig)
			continue
		}
		setAttr(&tok, "nonce", nonce)
		b.WriteString(tok.String())
		changed++
	}

	// Недописанный хвост (обрыв внутри тега и т.п.) оставляем как есть.
	if consumed < len(doc) {
		b.WriteString(doc[consumed:])
	}
	if changed == 0 {
		return doc, 0
	}
	return b.String(), changed
}

func needsNonce(tok html.Token, processStyles bool) bool {
	switch tok.DataAtom {
	case atom.Script:
		typ, _ := getAttr(tok, "type")
		return IsExecutableScriptType(typ)
	case atom.Style:
		return processStyles
	}
	return false
}

// IsExecutableScriptType: пустой type или один из исполняемых MIME-типов.
// Сравнение без учёта регистра и пробелов по краям.
func IsExecutableScriptType(typ string) bool {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		return true
	}
	_, ok := executableScriptTypes[typ]
	return ok
}

func getAttr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// setAttr заменяет первое вхождение атрибута и удаляет дубликаты; иначе добавляет в конец.
func setAttr(tok *html.Token, key, val string) {
	attrs := tok.Attr[:0]
	found := false
	for _, a := range tok.Attr {
		if a.Key == key {
			if found {
				continue
			}
			a.Val = val
			found = true
		}
		attrs = append(attrs, a)
	}
	if !found {
		attrs = append(attrs, html.Attribute{Key: key, Val: val})
	}
	tok.Attr = attrs
}

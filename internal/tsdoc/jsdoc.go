package tsdoc

import (
	"regexp"
	"strings"
)

type docComment struct {
	Description string
	Tags        Tags
	Params      map[string]string
}

// description prefers the inline text over an explicit @description tag.
func (d docComment) description() string {
	if d.Description != "" {
		return d.Description
	}
	return d.Tags["description"]
}

var remarksTypeRe = regexp.MustCompile("^`([^`]+)`$")

// typeOverride returns the type named by a backticked @remarks tag.
func (d docComment) typeOverride() (string, bool) {
	m := remarksTypeRe.FindStringSubmatch(strings.TrimSpace(d.Tags["remarks"]))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func parseDocComment(raw string) docComment {
	doc := docComment{}
	if !strings.HasPrefix(raw, "/**") {
		return doc
	}
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "/**"), "*/")

	var desc []string
	var tag string
	var value []string
	flush := func() {
		if tag == "" {
			return
		}
		doc.addTag(tag, strings.TrimSpace(strings.Join(value, "\n")))
		tag, value = "", nil
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, " ")
		if strings.HasPrefix(line, "@") {
			flush()
			name, rest, _ := strings.Cut(line[1:], " ")
			tag = strings.TrimSpace(name)
			value = []string{rest}
			continue
		}
		if tag != "" {
			value = append(value, line)
		} else {
			desc = append(desc, line)
		}
	}
	flush()
	doc.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return doc
}

func (d *docComment) addTag(name, value string) {
	switch name {
	case "param":
		pname, pdesc := splitParamTag(value)
		if pname == "" {
			return
		}
		if d.Params == nil {
			d.Params = map[string]string{}
		}
		d.Params[pname] = pdesc
		return
	case "return":
		name = "returns"
	}
	if d.Tags == nil {
		d.Tags = Tags{}
	}
	d.Tags[name] = value
}

// splitParamTag parses "{type} name - text" and "[name=default] text".
func splitParamTag(value string) (string, string) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "{") {
		if end := strings.Index(value, "}"); end >= 0 {
			value = strings.TrimSpace(value[end+1:])
		}
	}
	name, rest, _ := strings.Cut(value, " ")
	name = strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
	name, _, _ = strings.Cut(name, "=")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
	return name, rest
}

package logreader

import (
	"strings"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// strategy holds the line transforms of one instrument model family.
type strategy struct {
	family types.ModelFamily

	// isSeparator reports an end-of-section line. Blank lines are always
	// separators and never reach this function.
	isSeparator func(line string) bool

	// isHeader reports a section header line.
	isHeader func(line string) bool

	// header computes the new current header from a header line and the
	// previous current header.
	header func(line, previous string) string

	// value splits a value line into its channel name and raw value.
	value func(line string) (channel, value string)
}

// strategyFor returns the reader strategy of a model family.
func strategyFor(family types.ModelFamily) strategy {
	switch family {
	case types.FamilyOrbitrap:
		return strategy{
			family:      family,
			isSeparator: never,
			isHeader:    noTab,
			header:      orbitrapHeader,
			value:       colonSuffixValue,
		}
	case types.FamilyTSQ:
		return strategy{
			family:      family,
			isSeparator: never,
			isHeader:    noTab,
			header:      tsqHeader,
			value:       colonSuffixValue,
		}
	case types.FamilyQExactive:
		return strategy{
			family:      family,
			isSeparator: isRule,
			isHeader:    func(line string) bool { return strings.Contains(line, "===") },
			header:      qExactiveHeader,
			value:       lastColonValue,
		}
	case types.FamilyFusion:
		return strategy{
			family:      family,
			isSeparator: isRule,
			isHeader:    func(line string) bool { return !strings.Contains(line, ":") },
			header:      func(line, _ string) string { return strings.TrimSpace(line) },
			value:       lastColonValue,
		}
	default:
		return strategy{
			family:      types.FamilyDefault,
			isSeparator: never,
			isHeader:    func(string) bool { return false },
			header:      func(_, previous string) string { return previous },
			value:       tabValue,
		}
	}
}

func never(string) bool { return false }

func noTab(line string) bool { return !strings.Contains(line, "\t") }

// isRule reports a line made only of '=' or '-' characters, which the
// high-end Orbitrap tools print between sections.
func isRule(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 3 {
		return false
	}
	return strings.Trim(line, "=") == "" || strings.Trim(line, "-") == ""
}

// splitTab splits a line at its first tab and trims both halves.
func splitTab(line string) (string, string) {
	name, value, _ := strings.Cut(line, "\t")
	return strings.TrimSpace(name), strings.TrimSpace(value)
}

func tabValue(line string) (string, string) {
	return splitTab(line)
}

// colonSuffixValue removes the trailing ':' the Orbitrap and TSQ tools print
// after the channel name.
func colonSuffixValue(line string) (string, string) {
	name, value := splitTab(line)
	name = strings.TrimSpace(strings.TrimSuffix(name, ":"))
	return name, value
}

// lastColonValue truncates the channel name at its last colon.
func lastColonValue(line string) (string, string) {
	name, value := splitTab(line)
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	return name, value
}

// orbitrapHeader strips everything from the first colon.
func orbitrapHeader(line, _ string) string {
	line = strings.TrimSpace(line)
	if i := strings.Index(line, ":"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// tsqHeader rebuilds multi-line section titles. A header line starting with
// a quote continues the previous header: the previous header is cut at its
// first '-' and joined with the quoted text.
func tsqHeader(line, previous string) string {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, `"`) {
		return strings.TrimSpace(strings.TrimSuffix(line, ":"))
	}
	cont := strings.TrimSpace(strings.Trim(line, `":`))
	prefix := previous
	if i := strings.Index(prefix, "-"); i >= 0 {
		prefix = prefix[:i]
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return cont
	}
	return prefix + " - " + cont
}

// qExactiveHeader takes the text between the first space and the first colon,
// for example "=== Ion Source: ===" gives "Ion Source".
func qExactiveHeader(line, _ string) string {
	line = strings.TrimSpace(line)
	rest := line
	if i := strings.Index(line, " "); i >= 0 {
		rest = line[i+1:]
	}
	if i := strings.Index(rest, ":"); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(rest), "="))
}

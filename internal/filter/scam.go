package filter

import (
	"regexp"
	"strings"

	"github.com/jobsift/jobsift/internal/model"
)

// ScamName is the stable verdict name of the scam-signal detector.
const ScamName = "scam"

type flaggedPattern struct {
	re   *regexp.Regexp
	flag string
}

func fp(flag, expr string) flaggedPattern {
	return flaggedPattern{re: regexp.MustCompile(`(?i)` + expr), flag: flag}
}

// redPatterns are recruiting-scam tells. Each match contributes one red
// count and its flag is recorded on the verdict even when the net score
// stays high.
var redPatterns = []flaggedPattern{
	fp("contact:personal-email", `[a-z0-9._%+-]+@(gmail|yahoo|hotmail|outlook|aol|proton)\.[a-z]+`),
	fp("fee-language", `(upfront|registration|training|processing|application) fee|wire transfer|western union|pay (to|before) start`),
	fp("vague-stack", `(various|latest|all|cutting[ -]edge|modern) (technologies|tools|tech stacks?)`),
	fp("too-good-pay", `(unlimited|uncapped) (income|earnings)|earn \$?\d{3,}[ /]?(per |a )?(day|week)`),
	fp("urgency-pressure", `(immediate|urgent) (start|hiring|opening)|(apply|start) (now|today|immediately)`),
}

// greenPatterns are legitimacy tells: each match contributes one green count.
var greenPatterns = []flaggedPattern{
	fp("specific-stack", `\b(kubernetes|terraform|postgres(ql)?|golang|python|typescript|react|kafka|redis|aws|gcp|azure)\b`),
	fp("benefits", `\b(401\(?k\)?|health insurance|dental|vision|paid time off|\bpto\b|parental leave|equity)\b`),
	fp("process-detail", `(interview process|hiring process|take[ -]home|onsite|background check)`),
}

var _ Filter = (*ScamDetector)(nil)

// ScamDetector evaluates a fixed set of red-flag and green-flag patterns
// over the description and contact text. The numeric score and the recorded
// flags are independent: flags are informational.
type ScamDetector struct{}

func NewScamDetector() *ScamDetector {
	return &ScamDetector{}
}

func (d *ScamDetector) Name() string { return ScamName }

// Evaluate counts matched red and green patterns and scores
// 0.5 + 0.5*(green-red)/(green+red+1), clamped to [0,1]. Company-domain
// contact counts green; every matched red pattern is flagged.
func (d *ScamDetector) Evaluate(job model.CanonicalJob) model.FilterVerdict {
	text := job.Description + " " + job.Contact

	var red, green int
	var flags []string

	for _, p := range redPatterns {
		if p.re.MatchString(text) {
			red++
			flags = append(flags, p.flag)
		}
	}
	for _, p := range greenPatterns {
		if p.re.MatchString(text) {
			green++
		}
	}
	if hasCompanyDomainContact(job) {
		green++
	}

	score := 0.5 + 0.5*float64(green-red)/float64(green+red+1)

	return model.FilterVerdict{
		Filter: ScamName,
		Score:  clamp01(score),
		Flags:  flags,
	}
}

// hasCompanyDomainContact reports whether the contact e-mail's domain
// appears in the listing URL's host, i.e. the poster can be reached at the
// company's own domain.
func hasCompanyDomainContact(job model.CanonicalJob) bool {
	at := strings.LastIndex(job.Contact, "@")
	if at < 0 || at == len(job.Contact)-1 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(job.Contact[at+1:]))
	if domain == "" {
		return false
	}
	// Compare against the registrable part of the listing host.
	host := job.URL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

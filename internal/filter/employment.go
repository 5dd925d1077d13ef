package filter

import (
	"regexp"

	"github.com/jobsift/jobsift/internal/model"
)

// EmploymentName is the stable verdict name of the employment classifier.
const EmploymentName = "employment"

// classOrder is the tie-break order, most favorable to the candidate first.
var classOrder = []model.EmploymentType{
	model.EmploymentW2Fulltime,
	model.EmploymentW2Contract,
	model.EmploymentC2C,
	model.Employment1099,
}

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

func wp(weight float64, expr string) weightedPattern {
	return weightedPattern{re: regexp.MustCompile(`(?i)` + expr), weight: weight}
}

// classPatterns is the static keyword/weight map for each employment class,
// compiled once at package init and never mutated.
var classPatterns = map[model.EmploymentType][]weightedPattern{
	model.EmploymentW2Fulltime: {
		wp(3, `full[ -]?time`),
		wp(3, `\bw-?2\b[^,.]{0,20}(employee|position|role)`),
		wp(2, `\bsalaried\b`),
		wp(2, `\bpermanent (position|role|employee)`),
		wp(1, `\bbenefits eligible\b`),
		wp(1, `\bdirect hire\b`),
	},
	model.EmploymentW2Contract: {
		wp(3, `\bw-?2\b[^,.]{0,20}contract`),
		wp(3, `contract[ -]to[ -]hire`),
		wp(2, `\bcontract (position|role|assignment)`),
		wp(1, `\b(6|12|18)[ -]month contract`),
		wp(1, `\bstaffing (agency|firm)\b`),
	},
	model.EmploymentC2C: {
		wp(4, `\bc2c\b`),
		wp(4, `corp[ -]to[ -]corp`),
		wp(2, `\bown corporation\b`),
		wp(1, `\bthird[ -]party (vendors?|candidates?)\b`),
	},
	model.Employment1099: {
		wp(4, `\b1099\b`),
		wp(3, `independent contractor`),
		wp(2, `\bfreelance\b`),
		wp(1, `\bself[ -]employed\b`),
	},
}

var _ Filter = (*EmploymentClassifier)(nil)

// EmploymentClassifier scans the description against weighted keyword sets
// for each employment class and assigns the class with the highest
// cumulative weight. Identical text always yields the same class and
// confidence.
type EmploymentClassifier struct{}

func NewEmploymentClassifier() *EmploymentClassifier {
	return &EmploymentClassifier{}
}

func (c *EmploymentClassifier) Name() string { return EmploymentName }

// Evaluate returns the winning class and a confidence score: the winning
// class's cumulative weight over the sum of all class weights. Ties break
// in classOrder. With no keyword hits at all the class is unknown and the
// confidence neutral.
func (c *EmploymentClassifier) Evaluate(job model.CanonicalJob) model.FilterVerdict {
	weights := make(map[model.EmploymentType]float64, len(classOrder))
	var total float64

	for class, patterns := range classPatterns {
		for _, p := range patterns {
			if p.re.MatchString(job.Description) {
				weights[class] += p.weight
				total += p.weight
			}
		}
	}

	if total == 0 {
		return model.FilterVerdict{
			Filter: EmploymentName,
			Score:  0.5,
			Class:  model.EmploymentUnknown,
			Flags:  []string{"unclassified"},
		}
	}

	winner := model.EmploymentUnknown
	var best float64
	for _, class := range classOrder {
		if weights[class] > best {
			best = weights[class]
			winner = class
		}
	}

	return model.FilterVerdict{
		Filter: EmploymentName,
		Score:  best / total,
		Class:  winner,
	}
}

package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
)

// themeKeywords maps each theme to the regex patterns that signal it. Shared
// by the keyword and social extractors; the two differ only in input text,
// match threshold and scoring curve.
var themeKeywords = map[string][]string{
	"artificial intelligence": {
		`\bartificial intelligence\b`, `\bmachine learning\b`, `\bdeep learning\b`,
		`\bneural network`, `\bAI\b`, `\bgenerat\w+ AI\b`,
	},
	"cloud computing": {
		`\bcloud\b.*\b(?:comput|service|platform|infrastructure)\b`,
		`\bSaaS\b`, `\bPaaS\b`, `\bIaaS\b`, `\bcloud-based\b`, `\bcloud-native\b`,
	},
	"mobile": {
		`\bmobile\b.*\b(?:device|app|platform|phone|commerce)\b`, `\bsmartphone\b`,
		`\biPhone\b`, `\biPad\b`, `\bAndroid\b`,
	},
	"wearable technology": {
		`\bwearable\b`, `\bsmartwatc\w+\b`, `\bfitness track\w+\b`,
		`\bApple Watch\b`, `\bhealth monitor\w+\b`,
	},
	"cybersecurity": {
		`\bcybersecurity\b`, `\bcyber\s*security\b`, `\bdata protection\b`,
		`\bencryption\b`, `\bthreat detection\b`, `\bsecurity software\b`,
		`\bzero trust\b`,
	},
	"e-commerce": {
		`\be-commerce\b`, `\becommerce\b`, `\bonline retail\b`,
		`\bdigital marketplace\b`, `\bonline shopping\b`,
	},
	"fintech": {
		`\bfintech\b`, `\bdigital payment\b`, `\bmobile payment\b`,
		`\bdigital banking\b`, `\bneobank\b`,
	},
	"electric vehicles": {
		`\belectric vehicle\b`, `\bEV\b`, `\bbattery\b.*\b(?:electric|vehicle)\b`,
		`\bcharging station\b`, `\bcharging infrastructure\b`,
	},
	"5g": {
		`\b5G\b`, `\bfifth generation\b`, `\b5G network\b`,
		`\bmmWave\b`, `\bsub-6\b`,
	},
	"big data": {
		`\bbig data\b`, `\bdata analytics\b`, `\bdata-driven\b`,
		`\bdata warehouse\b`, `\bdata lake\b`,
	},
	"adtech": {
		`\badvertising technolog\w+\b`, `\badtech\b`, `\bdigital advertising\b`,
		`\bprogrammatic\b`, `\bad exchange\b`, `\btargeted advertising\b`,
	},
	"semiconductors": {
		`\bsemiconductor\b`, `\bchip\b.*\b(?:design|manufactur|fab)\b`,
		`\bintegrated circuit\b`, `\bwafer\b`, `\bfoundry\b`,
	},
	"healthcare": {
		`\bhealthcare\b`, `\bmedical device\b`, `\bclinical trial\b`,
		`\bpatient care\b`, `\bhealth system\b`,
	},
	"biotechnology": {
		`\bbiotech\w*\b`, `\bbiological\b.*\b(?:drug|therapy)\b`,
		`\bmonoclonal antibod\w+\b`, `\bcell therap\w+\b`,
	},
	"drug discovery": {
		`\bdrug discover\w+\b`, `\bpharmaceutical\b`, `\bpipeline\b.*\b(?:drug|therapy)\b`,
		`\bclinical stage\b`, `\bFDA approv\w+\b`,
	},
	"genomics": {
		`\bgenomic\b`, `\bgenome\b`, `\bgene therap\w+\b`,
		`\bCRISPR\b`, `\bDNA sequenc\w+\b`,
	},
	"renewable energy": {
		`\brenewable energy\b`, `\bclean energy\b`,
		`\bgreen energy\b`, `\benergy transition\b`,
	},
	"solar": {
		`\bsolar\b.*\b(?:energy|panel|farm|power)\b`, `\bphotovoltaic\b`,
	},
	"wind energy": {
		`\bwind\b.*\b(?:energy|turbine|farm|power)\b`, `\boffshore wind\b`,
	},
	"battery technology": {
		`\bbattery\b.*\b(?:technolog|storage|cell|pack)\b`,
		`\blithium-ion\b`, `\bsolid-state batter\w+\b`,
	},
	"autonomous driving": {
		`\bautonomous\b.*\b(?:driv|vehicle)\b`, `\bself-driving\b`,
		`\blidar\b`, `\bADAS\b`,
	},
	"streaming": {
		`\bstreaming\b.*\b(?:service|platform|content|video)\b`,
		`\bvideo on demand\b`, `\bOTT\b`,
	},
	"robotics": {
		`\brobot\w+\b`, `\bindustrial automation\b`,
		`\brobotic process\b`, `\bcollaborative robot\b`,
	},
	"blockchain": {
		`\bblockchain\b`, `\bdistributed ledger\b`, `\bsmart contract\b`,
		`\bWeb3\b`,
	},
	"cryptocurrency": {
		`\bcryptocurrenc\w+\b`, `\bbitcoin\b`, `\bethereum\b`,
		`\bcrypto\b.*\b(?:asset|exchange|trading)\b`,
	},
	"space": {
		`\bspace\b.*\b(?:explor|launch|satellite|orbit)\b`,
		`\brocket\b`, `\bspacecraft\b`,
	},
	"gaming": {
		`\bvideo game\b`, `\bgaming\b.*\b(?:platform|console|industry)\b`,
		`\besport\b`,
	},
	"internet of things": {
		`\binternet of things\b`, `\bIoT\b`, `\bconnected devices\b`,
		`\bsmart home\b`, `\bedge computing\b`,
	},
	"quantum computing": {
		`\bquantum comput\w+\b`, `\bqubit\b`,
		`\bquantum\b.*\b(?:advantage|supremacy|algorithm)\b`,
	},
	"generative ai": {
		`\bgenerative AI\b`, `\blarge language model\b`, `\bLLM\b`,
		`\bGPT\b`, `\bfoundation model\b`, `\btext-to-image\b`,
	},
	"lifestyle": {
		`\blifestyle\b`, `\bconsumer\b.*\b(?:electronic|product|brand)\b`,
		`\bpremium\b.*\b(?:brand|product)\b`, `\becosystem\b`,
	},
	"digital payments": {
		`\bdigital payment\b`, `\bcontactless\b`, `\bmobile wallet\b`,
		`\bpayment processing\b`, `\bNFC\b`,
	},
	"telehealth": {
		`\btelehealth\b`, `\btelemedicine\b`, `\bremote\b.*\bcare\b`,
		`\bvirtual\b.*\b(?:clinic|care|visit)\b`,
	},
	"data center": {
		`\bdata center\b`, `\bcolocation\b`, `\bhyperscale\b`,
		`\bserver\b.*\b(?:farm|rack|infrastructure)\b`,
	},
	"sustainability": {
		`\bsustainab\w+\b`, `\bESG\b`, `\bcarbon\b.*\b(?:neutral|footprint|offset)\b`,
		`\bnet zero\b`,
	},
}

// themePatterns holds the case-insensitive compiled form of themeKeywords.
var themePatterns = compilePatterns()

func compilePatterns() map[string][]*regexp.Regexp {
	compiled := make(map[string][]*regexp.Regexp, len(themeKeywords))
	for theme, patterns := range themeKeywords {
		res := make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			res[i] = regexp.MustCompile(`(?i)` + p)
		}
		compiled[theme] = res
	}
	return compiled
}

// themeMatch is the raw outcome of running one theme's patterns over a text.
type themeMatch struct {
	count    int
	evidence string
}

// matchKeywords runs every theme's patterns over text and returns match counts
// plus a ±40 character window around the first hit as evidence.
func matchKeywords(text string) map[string]themeMatch {
	hits := make(map[string]themeMatch)
	for theme, patterns := range themePatterns {
		count := 0
		evidence := ""
		for _, re := range patterns {
			locs := re.FindAllStringIndex(text, -1)
			if len(locs) == 0 {
				continue
			}
			count += len(locs)
			if evidence == "" {
				start := locs[0][0] - 40
				if start < 0 {
					start = 0
				}
				for start > 0 && !utf8.RuneStart(text[start]) {
					start--
				}
				end := locs[0][1] + 40
				if end > len(text) {
					end = len(text)
				}
				for end < len(text) && !utf8.RuneStart(text[end]) {
					end++
				}
				evidence = strings.TrimSpace(text[start:end])
			}
		}
		if count > 0 {
			hits[theme] = themeMatch{count: count, evidence: evidence}
		}
	}
	return hits
}

// KeywordExtractor matches curated regex patterns against all of a company's
// text. Confidence scales with match density per 1000 characters.
type KeywordExtractor struct{}

func NewKeywordExtractor() *KeywordExtractor { return &KeywordExtractor{} }

func (e *KeywordExtractor) Name() string { return "keyword" }

func (e *KeywordExtractor) Eligible(profile *model.CompanyProfile) bool {
	return profile.HasText()
}

func (e *KeywordExtractor) Extract(_ context.Context, profile *model.CompanyProfile, _ *semantic.FilterResult) ([]model.Theme, error) {
	var parts []string
	if profile.BusinessDescription != "" {
		parts = append(parts, profile.BusinessDescription)
	}
	if profile.BusinessSummary != "" {
		parts = append(parts, profile.BusinessSummary)
	}
	if profile.RiskFactors != "" {
		parts = append(parts, profile.RiskFactors)
	}
	if profile.SocialText != "" {
		parts = append(parts, profile.SocialText)
	}
	if len(parts) == 0 {
		return nil, nil
	}

	text := strings.Join(parts, " ")
	var themes []model.Theme
	for theme, hit := range matchKeywords(text) {
		density := float64(hit.count) / (float64(len(text)) / 1000)
		confidence := 0.35 + density*0.08
		if confidence > 0.9 {
			confidence = 0.9
		}
		themes = append(themes, model.Theme{
			Name:       theme,
			Confidence: round3(confidence),
			Source:     model.MethodKeywordNLP,
			Evidence:   hit.evidence,
		})
	}

	sortThemes(themes)
	return themes, nil
}

package skills

import (
	"testing"

	"go-jobboard-scraper/internal/classify"
	"go-jobboard-scraper/internal/rules"

	"github.com/stretchr/testify/assert"
)

func newTestNormalizer(max int) *Normalizer {
	return New(classify.MustNew(rules.DefaultVocabulary()), Options{MaxSkills: max})
}

func TestNormalize_Concatenated(t *testing.T) {
	n := newTestNormalizer(15)

	tests := []struct {
		name     string
		raw      []string
		expected []string
	}{
		{
			name:     "camel-cased pair from dictionary",
			raw:      []string{"PythonReact"},
			expected: []string{"Python", "React"},
		},
		{
			name:     "mixed concatenation with delimiter",
			raw:      []string{"PythonLLMsAI/Ml"},
			expected: []string{"Python", "LLMs", "AI", "ML"},
		},
		{
			name:     "explicit delimiters",
			raw:      []string{"Docker, Kubernetes | AWS and Terraform"},
			expected: []string{"Docker", "Kubernetes", "AWS", "Terraform"},
		},
		{
			name:     "canonical casing",
			raw:      []string{"node.js", "POSTGRESQL", "ci/cd"},
			expected: []string{"Node.js", "PostgreSQL", "CI/CD"},
		},
		{
			name:     "stopwords dropped",
			raw:      []string{"3+ years experience", "Bachelor degree", "Go"},
			expected: []string{"Go"},
		},
		{
			name:     "unknown short skill kept and capitalized",
			raw:      []string{"problem solving"},
			expected: []string{"Problem Solving"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.raw))
		})
	}
}

func TestNormalize_NoFalseSubstringMatches(t *testing.T) {
	n := newTestNormalizer(15)

	got := n.Normalize([]string{"Excellent Communication"})
	assert.NotContains(t, got, "Excel")
	assert.NotContains(t, n.Normalize([]string{"Gopher"}), "Go")
}

func TestNormalize_Dedup(t *testing.T) {
	n := newTestNormalizer(15)

	got := n.Normalize([]string{"React", "react", "REACT", "Docker"})
	assert.Equal(t, []string{"React", "Docker"}, got)

	// 0.8 overlap keeps the shorter variant
	got = n.Normalize([]string{"HTML5", "HTML"})
	assert.Equal(t, []string{"HTML"}, got)
}

func TestNormalize_ConcatenationFilter(t *testing.T) {
	n := newTestNormalizer(15)

	got := dropConcatenations([]string{"Python", "Django", "PythonDjango", "Redis"})
	assert.Equal(t, []string{"Python", "Django", "Redis"}, got)

	got = dropConcatenations([]string{"REST API", "REST"})
	assert.Equal(t, []string{"REST API", "REST"}, got, "one contained token without a matching residual stays")

	assert.Empty(t, n.Normalize(nil))
	assert.NotNil(t, n.Normalize(nil))
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer(20)

	inputs := [][]string{
		{"PythonReact", "Docker, Kubernetes", "machine learning"},
		{"PythonLLMsAI/Ml", "Node.js & Express", "Team Player"},
		{"HTML5", "CSS3", "JavaScript", "Tailwind", "ReactNative"},
		{"Spring Boot", "Java", "Microservices and REST APIs"},
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		assert.Equal(t, once, twice, "input %v", in)
	}
}

func TestNormalize_Cap(t *testing.T) {
	n := newTestNormalizer(3)

	got := n.Normalize([]string{"Go, Python, Rust, Java, Kotlin"})
	assert.Len(t, got, 3)
	assert.Equal(t, []string{"Go", "Python", "Rust"}, got)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("Go", "go"), 0.001)
	assert.InDelta(t, 0.8, similarity("HTML", "HTML5"), 0.001)
	assert.Less(t, similarity("Java", "JavaScript"), 0.8)
}

func TestNormalize_JSSuffix(t *testing.T) {
	n := newTestNormalizer(15)

	tests := []struct {
		name     string
		raw      []string
		expected []string
	}{
		{"dotted suffix folds onto dictionary term", []string{"React.js"}, []string{"React"}},
		{"glued suffix", []string{"ExpressJS"}, []string{"Express"}},
		{"dictionary term with suffix", []string{"nodejs"}, []string{"Node.js"}},
		{"unknown library kept whole", []string{"Angular.js, Three.js"}, []string{"Angular", "Three.js"}},
		{"bare suffix dropped", []string{"Python/.js"}, []string{"Python"}},
		{"leading dot of a dictionary term kept", []string{".NET"}, []string{".NET"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.raw))
		})
	}
}

func TestNormalize_LongUnknownSkills(t *testing.T) {
	n := New(classify.MustNew(rules.DefaultVocabulary()), Options{MaxSkills: 15, CamelSplitThreshold: 8})

	tests := []struct {
		name     string
		raw      []string
		expected []string
	}{
		{"single word over threshold", []string{"Communication"}, []string{"Communication"}},
		{"phrase without case transitions", []string{"Data Structures"}, []string{"Data Structures"}},
		{"glued words split", []string{"CommunicationLeadership"}, []string{"Communication", "Leadership"}},
		{"stopword fragment dropped", []string{"LeadershipExperience"}, []string{"Leadership"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.raw))
		})
	}
}

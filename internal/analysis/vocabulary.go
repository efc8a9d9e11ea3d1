package analysis

// DefaultVocabulary is the ordered list of technology and skill keywords matched against descriptions.
// Matching is a case-insensitive substring search, so multi-word entries are matched as phrases.
var DefaultVocabulary = []string{
	"python", "java", "javascript", "sql", "aws", "docker", "react", "angular", "node", "linux", "devops", "tensorflow",
	"kubernetes", "flutter", "swift", "cloud", "ci/cd", "cybersecurity", "big data", "data science", "machine learning",
	"deep learning", "hadoop", "spark", "tableau", "power bi", "pandas", "pytorch", "numpy", "scikit-learn", "keras",
	"figma", "sketch", "adobe xd", "illustrator", "photoshop", "android", "kotlin", "seo", "social media", "marketing",
	"google ads", "facebook ads", "crm", "content strategy", "wordpress", "html", "css", "sass",
}

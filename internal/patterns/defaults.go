package patterns

// Navigation and contact strings seen on institutional event pages.
// Matched exactly and case-sensitively.
var defaultDenylist = []string{
	"Contact Us",
	"Connect with Us",
	"Connect With Us",
	"About Us",
	"Follow Us",
	"Subscribe",
	"Newsletter",
	"Sign up for our newsletter",
	"Skip to main content",
	"Main Navigation",
	"Quick Links",
	"Related Links",
	"Upcoming Events",
	"Past Events",
	"All Events",
	"View all events",
	"View All Events",
	"More Events",
	"Event Calendar",
	"Events Calendar",
	"Add to Calendar",
	"Read more",
	"Learn more",
	"Load more",
	"Privacy Policy",
	"Accessibility",
	"Site Map",
	"Directions",
	"Visit Us",
	"Give Now",
	"Make a Gift",
	"Admissions",
	"Faculty & Research",
	"News & Events",
	"Office Hours",
	"Office of Communications",
	"Harvard University",
	"Massachusetts Institute of Technology",
	"Department Events",
	"Seminars & Events",
	"Lectures & Seminars",
	"Events & Seminars",
}

var defaultPlaceholders = []string{
	"speaker to be announced",
	"speaker to be determined",
	"speaker tba",
	"speaker tbd",
	"title to come",
	"title to be announced",
	"title tba",
	"title tbd",
	"title forthcoming",
	"abstract to come",
	"to be announced",
	"to be determined",
	"tba",
	"tbd",
}

var defaultInstitutions = []Institution{
	{
		Label: "Harvard",
		Match: []string{"harvard.edu", "harvard.org", "hbs.edu", "harvardscience", "radcliffe", "wyss.harvard"},
	},
	{
		Label: "MIT",
		Match: []string{"mit.edu", "broadinstitute", "iaifi.org", "ericandwendyschmidtcenter.org"},
	},
	{Label: "Boston University", Match: []string{"bu.edu"}},
	{Label: "Northeastern", Match: []string{"northeastern.edu"}},
	{Label: "Tufts", Match: []string{"tufts.edu"}},
	{Label: "Boston College", Match: []string{"bc.edu"}},
	{Label: "Brandeis", Match: []string{"brandeis.edu"}},
	{Label: "UMass Boston", Match: []string{"umb.edu"}},
}

var defaultTopics = []Topic{
	{
		Label: "computer science",
		Keywords: []string{
			"computer science", "machine learning", "artificial intelligence",
			"deep learning", "neural network", "algorithm", "software",
			"computing", "data science", "robotics", "cryptography",
			"programming", "natural language processing", "computer vision",
			"large language model", "reinforcement learning", "distributed systems",
		},
	},
	{
		Label: "biology",
		Keywords: []string{
			"biology", "biological", "genomics", "genome", "genetics", "protein",
			"cellular", "molecular", "neuroscience", "immunology", "microbiome",
			"microbiology", "evolution", "ecology", "biochemistry",
			"bioinformatics", "crispr", "dna", "cancer", "stem cell",
		},
	},
}

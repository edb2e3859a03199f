package main

// Page copy. Kept apart from the handlers so it can be edited without
// touching routing code.
var (
	AboutMe = `I'm a front-end developer who enjoys turning rough ideas into fast, accessible websites.
	Most of my projects start as a sketch for a friend or a local business and end up teaching me
	something new, whether that's a better layout technique, an animation trick, or a cleaner way
	to structure data. When I'm not building, I'm usually reading about design systems or helping
	someone get their first site online.`

	Tagline = `Web developer building clean, responsive sites that work offline too.`
)

// Project is one portfolio entry.
type Project struct {
	ID          string
	Title       string
	Description string
	Image       string
	Tags        []string
}

// Position is one entry on the work or education timeline.
type Position struct {
	Title        string
	Organization string
	StartDate    string
	EndDate      string
	LogoPath     string
	BulletPoints []string
}

var Projects = []Project{
	{
		ID:    "fashion-finesse",
		Title: "Fashion Finesse",
		Description: `An online storefront for a clothing boutique with a filterable catalogue,
		a persistent cart and a checkout flow that degrades gracefully without JavaScript.`,
		Image: "/Images/Fashion finesse deployed.png",
		Tags:  []string{"HTML", "CSS", "JavaScript"},
	},
	{
		ID:    "weather-app",
		Title: "Weather App",
		Description: `A five-day forecast app backed by a public weather API, with location search,
		unit switching and a cached last-known forecast for when the connection drops.`,
		Image: "/Images/Weather App (2).png",
		Tags:  []string{"JavaScript", "REST", "Service Worker"},
	},
	{
		ID:    "great-dafco",
		Title: "Great Dafco",
		Description: `A marketing site for a logistics company: service pages, a quote request form
		and an image gallery tuned for slow mobile networks.`,
		Image: "/Images/Great Dafco.png",
		Tags:  []string{"Responsive Design", "Accessibility"},
	},
}

var Work = []Position{
	{
		Title:        "Freelance Web Developer",
		Organization: "Self-employed",
		StartDate:    "Jan 2023",
		EndDate:      "Present",
		LogoPath:     "/Images/Work.png",
		BulletPoints: []string{
			"Delivered responsive sites for small businesses, from wireframe to deployment",
			"Cut page weight on client sites by compressing media and caching the static shell",
			"Set up contact forms that queue messages when visitors lose connectivity",
		},
	},
	{
		Title:        "Web Development Intern",
		Organization: "Local Digital Agency",
		StartDate:    "Jun 2022",
		EndDate:      "Dec 2022",
		LogoPath:     "/Images/Work 1.png",
		BulletPoints: []string{
			"Built landing pages from design mockups under senior review",
			"Fixed accessibility issues flagged in audits across existing client sites",
		},
	},
}

var Education = []Position{
	{
		Title:        "BSc Computer Science",
		Organization: "University",
		StartDate:    "Sept 2019",
		EndDate:      "May 2023",
		BulletPoints: []string{
			"Relevant coursework: Data Structures, Web Technologies, Human-Computer Interaction",
			"Final project: an offline-first progressive web app",
		},
	},
}

package service

const (
	VirtualTourIntro = "Great! I'll show you our virtual tour gallery. Here you can see different storage unit options available."
	WaitlistIntro    = "I'd be happy to help you join our waitlist! Please fill out the form below."
	BookNowGuidance  = "I'd be happy to help you book a storage unit! First, please provide your name and email above, then I can help you with the booking process."

	flashVirtualTour = "Loading virtual tour..."
	flashWaitlist    = "Preparing waitlist form..."
	flashBookNow     = "Setting up booking..."
)

type GallerySlide struct {
	Title       string   `json:"title"`
	ImageURL    string   `json:"imageUrl"`
	TourURL     string   `json:"tourUrl"`
	Description []string `json:"description"`
}

type Gallery struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Slides   []GallerySlide `json:"slides"`
}

type Waitlist struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Body     string `json:"body"`
	Button   string `json:"button"`
	FormURL  string `json:"formUrl"`
}

var virtualTourGallery = Gallery{
	Title:    "Virtual Tour Gallery",
	Subtitle: "Explore our storage facilities",
	Slides: []GallerySlide{
		{
			Title:    "Ulverstone Secure Storage",
			ImageURL: "https://assets.cloudhi.io/media/c96b3f0f-8340-4234-81d5-5131676577b9/013dc124-6518-43de-8567-9c868c8ff49b/8cCZaTzOBeFmff4CBU31SyDEtFOno0lrUifUcxOj.jpg.webp",
			TourURL:  "https://virtual-tour.ipropertyexpress.com/vt/tour/3a602bd0-1aa7-4d55-8bf3-27832048ab66",
			Description: []string{
				"Located at 45 Fieldings Way is the Ulverstone Secure Storage Facility. Comprising of over 80 units ranging from colourbond sheds with concrete floors to shipping containers, this facility has something for everyone.",
				"Security: Known for its high level of security with 24/7 CCTV, lights and keyed access, the facility is accessible to tenants at all hours of the day/night.",
				"Pricing: $226 per month for a large storage unit the size of a single garage, with some smaller containers available at $152 per month.",
				"Availability: With limited availability, we suggest you join the waitlist by completing the form linked at the bottom of this page.",
			},
		},
		{
			Title:    "Deegan Marine",
			ImageURL: "https://assets.cloudhi.io/media/c96b3f0f-8340-4234-81d5-5131676577b9/013dc124-6518-43de-8567-9c868c8ff49b/ZKqlXkXfc4axjy7mUdMPmWpPkEzbV8yGQpbW1Ylc.jpg.webp",
			TourURL:  "https://virtual-tour.ipropertyexpress.com/vt/tour/b3b9ce51-5643-4565-93df-5e59e7f77285",
			Description: []string{
				"Located at the roundabout on Eastland Drive, Deegan Marine houses shipping container storage for your convenience. With large and small options, there is something to suit everyone.",
				"Access: Accessible only during Deegan Marine business hours, this facility is ideal for the long haul or boat storage.",
				"Pricing: Priced from $120 per month.",
				"Availability: With limited availability, we suggest you join the waitlist by completing the form linked at the bottom of this page.",
			},
		},
	},
}

func waitlistCard(formURL string) Waitlist {
	return Waitlist{
		Title:    "Want to join the waitlist?",
		Subtitle: "Submit your interest here",
		Body:     "Get notified when storage units become available. We'll contact you as soon as a unit matching your needs becomes available.",
		Button:   "Expressions of Interest",
		FormURL:  formURL,
	}
}

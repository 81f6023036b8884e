package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"voxscribe/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageSection struct {
	Title string
	Body  []string
}

type pageContent struct {
	Path     string
	Title    string
	Heading  string
	Lead     string
	Sections []pageSection
}

type navLink struct {
	Path  string
	Title string
}

type pagePackage struct {
	Label   string
	Price   string
	Bonus   string
	Popular bool
}

type pageData struct {
	pageContent
	Locale   string
	Nav      []navLink
	Packages []pagePackage
}

// MarketingPages are the public pages served at the site root, keyed by name.
var MarketingPages = map[string]pageContent{
	"home": {
		Path:    "/",
		Title:   "Home",
		Heading: "Turn speech into text in minutes",
		Lead:    "Upload audio or video and get an accurate transcript back, paid for with prepaid tokens.",
		Sections: []pageSection{
			{Title: "How it works", Body: []string{
				"Upload an mp3, wav, mp4 or webm file from your dashboard.",
				"We store it securely, transcribe it and keep the transcript in your history.",
			}},
			{Title: "Start free", Body: []string{"Every new account starts with 5,000 tokens."}},
		},
	},
	"about": {
		Path:    "/about",
		Title:   "About",
		Heading: "About VoxScribe",
		Lead:    "We build transcription tools for people who work with recorded speech every day.",
		Sections: []pageSection{
			{Title: "Our mission", Body: []string{"Make every spoken word searchable and shareable."}},
		},
	},
	"features": {
		Path:    "/features",
		Title:   "Features",
		Heading: "Everything you need to transcribe",
		Lead:    "Accurate transcripts, a searchable history and simple token pricing.",
		Sections: []pageSection{
			{Title: "Audio and video", Body: []string{"mp3, wav, mp4 and webm uploads are supported."}},
			{Title: "History and export", Body: []string{"Browse previews of past transcripts and export them all as a zip archive."}},
			{Title: "Live balance", Body: []string{"Your token balance updates as soon as a transcription or purchase completes."}},
		},
	},
	"pricing": {
		Path:    "/pricing",
		Title:   "Pricing",
		Heading: "Simple token pricing",
		Lead:    "Buy tokens once and spend them on transcriptions. No subscription required.",
	},
	"applications": {
		Path:    "/applications",
		Title:   "Applications",
		Heading: "Where teams use VoxScribe",
		Lead:    "Interviews, lectures, podcasts, meetings and research recordings.",
		Sections: []pageSection{
			{Title: "Journalism", Body: []string{"Transcribe interviews and pull quotes quickly."}},
			{Title: "Education", Body: []string{"Turn lectures into study notes."}},
			{Title: "Podcasting", Body: []string{"Publish show notes and captions for every episode."}},
		},
	},
	"blog": {
		Path:    "/blog",
		Title:   "Blog",
		Heading: "VoxScribe blog",
		Lead:    "Product news and tips for getting the best transcripts.",
		Sections: []pageSection{
			{Title: "Recording tips", Body: []string{"Clear audio with little background noise gives the most accurate results."}},
		},
	},
	"security": {
		Path:    "/security",
		Title:   "Security",
		Heading: "Security at VoxScribe",
		Lead:    "Your recordings and transcripts are private to your account.",
		Sections: []pageSection{
			{Title: "Access control", Body: []string{"Every file and transcript is stored under your account and only served to you."}},
			{Title: "Payments", Body: []string{"Card payments are handled by Stripe; we never see your card number."}},
		},
	},
	"terms": {
		Path:    "/terms",
		Title:   "Terms of Service",
		Heading: "Terms of Service",
		Lead:    "By using VoxScribe you agree to these terms.",
		Sections: []pageSection{
			{Title: "Tokens", Body: []string{"Tokens are prepaid, non-refundable and do not expire."}},
			{Title: "Content", Body: []string{"You must have the right to upload and transcribe the media you submit."}},
		},
	},
	"privacy": {
		Path:    "/privacy",
		Title:   "Privacy Policy",
		Heading: "Privacy Policy",
		Lead:    "We collect only what we need to run the service.",
		Sections: []pageSection{
			{Title: "What we store", Body: []string{"Your account details, uploaded media and the resulting transcripts."}},
			{Title: "Deletion", Body: []string{"Deleting your account removes your profile and transcripts."}},
		},
	},
}

var navOrder = []string{"features", "pricing", "applications", "about", "blog", "security"}

// Page renders one marketing page.
func (a *App) Page(name string) http.HandlerFunc {
	content, ok := MarketingPages[name]
	return func(w http.ResponseWriter, r *http.Request) {
		if !ok {
			http.NotFound(w, r)
			return
		}
		data := pageData{pageContent: content, Locale: middleware.LocaleFromContext(r.Context())}
		for _, n := range navOrder {
			data.Nav = append(data.Nav, navLink{Path: MarketingPages[n].Path, Title: MarketingPages[n].Title})
		}
		if name == "pricing" && a.Billing != nil {
			tag := middleware.LanguageFromContext(r.Context())
			for _, p := range a.Billing.Packages() {
				data.Packages = append(data.Packages, pagePackage{
					Label:   p.Label(tag),
					Price:   p.Price.StringFixed(2),
					Bonus:   p.Bonus,
					Popular: p.Popular,
				})
			}
		}
		var buf bytes.Buffer
		if err := pageTemplates.ExecuteTemplate(&buf, "page", data); err != nil {
			a.Logger.Error().Err(err).Str("page", name).Msg("render page failed")
			http.Error(w, "something went wrong", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

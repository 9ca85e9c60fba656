// Package scraper turns the playlist site's index and show pages into stored
// shows and tracks.
//
// Index discovery filters the year-independent index page down to dated show
// links for one year. Each discovered show page is parsed for its track listing
// and for audio source candidates, which come from direct file links and from
// the site's archive player pages. The best candidate becomes the show's
// archive URL. Existing shows are only ever gap-filled.
package scraper

// Package images downloads tournament banners and keeps the card image
// directory in sync with the published tournaments.
//
// Banners are resized by ffmpeg into <name>.webp. A cached file is never
// downloaded again; files no tournament references are pruned after a run.
package images

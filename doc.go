// Package metaspector extracts structured metadata from MP4 (ISO-BMFF),
// MP3 (MPEG audio with ID3v2) and FLAC files without decoding any samples.
//
// # Quick Start
//
//	md, err := metaspector.InspectFile("movie.mp4")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(md.Metadata.String("title"))
//	for _, v := range md.Video {
//		fmt.Printf("%s %dx%d\n", v.Codec, v.Width, v.Height)
//	}
//
// # Output Model
//
// Every format folds into one UnifiedMetadata:
//
//	[UnifiedMetadata]
//	  ├─ Metadata  - tag keys (title, artist, track_number, ...), raw extras
//	  ├─ Audio     - one AudioTrack per audio stream
//	  ├─ Video     - one VideoTrack per video stream (MP4 only)
//	  ├─ Subtitle  - one SubtitleTrack per text stream (MP4 only)
//	  ├─ CoverArt  - the cover picture, never serialized
//	  └─ Warnings  - non-fatal problems met while decoding
//
// Metadata keys are present only when the file supplied them. Tags with no
// unified key are kept under Metadata.Raw.
//
// # Error Handling
//
// A call fails only when the bytes match no supported signature
// (ErrUnsupportedFormat) or a recognized file lacks its root structure
// (ErrNotAMediaFile, or ErrTruncatedInput when the source ends before it).
// Damage inside a box, frame or block is recorded as a
// Warning and everything decoded before it is kept:
//
//	for _, w := range md.Warnings {
//		log.Printf("warning: %s", w)
//	}
//
// WithStrictParsing turns the first warning into an error instead.
//
// # Concurrency
//
// Each call owns its decode state, so files may be inspected from any
// number of goroutines. InspectMany does this with a bounded worker pool.
package metaspector

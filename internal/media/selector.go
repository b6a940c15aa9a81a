package media

import "sort"

// SelectBestAudio picks the audio-only format with the highest average
// bitrate. Formats with equal bitrate keep their input order, so the first
// one wins.
func SelectBestAudio(formats []Format) (Format, error) {
	return selectBest(formats, Format.AudioOnly)
}

// SelectBestAudioOrMuxed behaves like SelectBestAudio and falls back to the
// best format carrying any audio track when no audio-only format exists.
func SelectBestAudioOrMuxed(formats []Format) (Format, error) {
	if best, err := SelectBestAudio(formats); err == nil {
		return best, nil
	}
	return selectBest(formats, Format.HasAudio)
}

func selectBest(formats []Format, keep func(Format) bool) (Format, error) {
	candidates := make([]Format, 0, len(formats))
	for _, format := range formats {
		if keep(format) {
			candidates = append(candidates, format)
		}
	}

	if len(candidates) == 0 {
		return Format{}, ErrNoAudioStream
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Bitrate() > candidates[j].Bitrate()
	})

	return candidates[0], nil
}

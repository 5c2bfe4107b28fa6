package artifacts

// Layout holds the file-name conventions used to recognize stages.
type Layout struct {
	// DownloadExts lists media extensions in preference order.
	DownloadExts []string
}

// LocalArtifact pairs a volume with the file that satisfied a stage probe.
type LocalArtifact struct {
	Volume   Volume
	FileName string
}

// NewLayout returns the standard layout: .wav, .mp3 and the configured
// download container all count as downloaded media.
func NewLayout(container string) Layout {
	if container == "" {
		container = "mp4"
	}
	return Layout{DownloadExts: []string{".wav", ".mp3", "." + container}}
}

// ExpectedNames lists the file names whose presence proves v reached stage.
func (l Layout) ExpectedNames(v Volume, stage Stage) []string {
	switch stage {
	case StageDownloaded:
		names := make([]string, 0, len(l.DownloadExts))
		for _, ext := range l.DownloadExts {
			names = append(names, ArtifactName(v, ext))
		}
		return names
	case StageTranscribed:
		return []string{ArtifactName(v, TranscriptExt)}
	default:
		return nil
	}
}

// Remaining returns the volumes, in input order, for which none of the
// expected names for stage appear in files. Stages are not combined: a
// transcribed volume without media is still remaining for StageDownloaded.
func (l Layout) Remaining(stage Stage, volumes []Volume, files []string) []Volume {
	present := fileSet(files)
	out := make([]Volume, 0, len(volumes))
	for _, v := range volumes {
		if _, ok := l.match(v, stage, present); !ok {
			out = append(out, v)
		}
	}
	return out
}

// Downloaded returns the volumes that have local media along with the file
// that matched, honouring extension preference order.
func (l Layout) Downloaded(volumes []Volume, files []string) []LocalArtifact {
	present := fileSet(files)
	out := make([]LocalArtifact, 0, len(volumes))
	for _, v := range volumes {
		if name, ok := l.match(v, StageDownloaded, present); ok {
			out = append(out, LocalArtifact{Volume: v, FileName: name})
		}
	}
	return out
}

// StageOf reports the furthest stage v has reached.
func (l Layout) StageOf(v Volume, files []string) Stage {
	present := fileSet(files)
	if _, ok := l.match(v, StageTranscribed, present); ok {
		return StageTranscribed
	}
	if _, ok := l.match(v, StageDownloaded, present); ok {
		return StageDownloaded
	}
	return StageNotStarted
}

func (l Layout) match(v Volume, stage Stage, present map[string]struct{}) (string, bool) {
	for _, name := range l.ExpectedNames(v, stage) {
		if _, ok := present[name]; ok {
			return name, true
		}
	}
	return "", false
}

func fileSet(files []string) map[string]struct{} {
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		set[f] = struct{}{}
	}
	return set
}

// Numbers returns the volume numbers in order, for logging.
func Numbers(volumes []Volume) []int {
	out := make([]int, len(volumes))
	for i, v := range volumes {
		out[i] = v.Number
	}
	return out
}

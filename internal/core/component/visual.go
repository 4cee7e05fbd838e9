package component

import "time"

// Visual is a sprite with optional frame animation.
type Visual struct {
	Sprite    string
	Frames    []string
	FrameTime time.Duration
	Loop      bool
	ScaleX    float64
	ScaleY    float64
	Tint      uint32 // 0xRRGGBBAA

	frame int
	clock time.Duration
}

func (*Visual) Kind() Kind { return KindVisual }
func (*Visual) sealed()    {}

// NewVisual creates a static sprite.
func NewVisual(sprite string) *Visual {
	return &Visual{Sprite: sprite, ScaleX: 1, ScaleY: 1, Tint: 0xFFFFFFFF}
}

// NewAnimation creates a sprite that cycles through frames.
func NewAnimation(frames []string, frameTime time.Duration, loop bool) *Visual {
	v := NewVisual("")
	v.Frames = frames
	v.FrameTime = frameTime
	v.Loop = loop
	return v
}

// Current is the sprite to draw this frame.
func (v *Visual) Current() string {
	if len(v.Frames) == 0 {
		return v.Sprite
	}
	return v.Frames[v.frame]
}

// FrameIndex is the current animation frame.
func (v *Visual) FrameIndex() int { return v.frame }

func (v *Visual) advance(dt time.Duration) {
	if len(v.Frames) < 2 || v.FrameTime <= 0 {
		return
	}
	v.clock += dt
	for v.clock >= v.FrameTime {
		v.clock -= v.FrameTime
		if v.frame+1 < len(v.Frames) {
			v.frame++
		} else if v.Loop {
			v.frame = 0
		} else {
			v.clock = 0
			return
		}
	}
}

func (v *Visual) document() map[string]any {
	doc := map[string]any{
		"sprite": v.Sprite,
		"scale":  []float64{v.ScaleX, v.ScaleY},
		"tint":   v.Tint,
	}
	if len(v.Frames) > 0 {
		doc["frames"] = append([]string(nil), v.Frames...)
		doc["frame_time_ms"] = v.FrameTime.Milliseconds()
		doc["loop"] = v.Loop
	}
	return doc
}

package astroimage

// Event is delivered to callbacks registered on an image. Source is the
// image the event originated from, which is not necessarily the image the
// callback was registered on: composites re-broadcast child events with
// the original source preserved.
type Event struct {
	Name   string
	Source *Image
}

// CallbackFunc handles one event. Callbacks run synchronously on the
// goroutine that triggered the event and may re-enter the image.
type CallbackFunc func(ev Event)

// AddCallback registers fn for the named event.
func (im *Image) AddCallback(name string, fn CallbackFunc) {
	if im.callbacks == nil {
		im.callbacks = make(map[string][]CallbackFunc)
	}
	im.callbacks[name] = append(im.callbacks[name], fn)
}

// NotifyModified emits a "modified" event originating from this image.
func (im *Image) NotifyModified() {
	im.emit(Event{Name: "modified", Source: im})
}

func (im *Image) emit(ev Event) {
	for _, fn := range im.callbacks[ev.Name] {
		fn(ev)
	}
}

// ObserveModified makes im re-broadcast child's "modified" events as its
// own. The original source is preserved on the re-broadcast event, and an
// event whose source is im itself is not re-broadcast; that guard breaks
// notification cycles when two images observe each other.
func (im *Image) ObserveModified(child *Image) {
	child.AddCallback("modified", func(ev Event) {
		if ev.Source == im {
			return
		}
		im.emit(ev)
	})
}

package decalkit

// SceneGraph mirrors committed instances and the preview into whatever
// renders them.
type SceneGraph interface {
	AddDecal(inst *Instance)
	RemoveDecal(id InstanceID)
	SetDecalVisible(id InstanceID, visible bool)
	ShowPreview(p *Preview)
	HidePreview()
}

// CameraControls is the orbit controller the garment is viewed through.
type CameraControls interface {
	SetRotationEnabled(enabled bool)
	SetHorizontalRotationEnabled(enabled bool)
}

type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

type NopScene struct{}

func (NopScene) AddDecal(*Instance)               {}
func (NopScene) RemoveDecal(InstanceID)           {}
func (NopScene) SetDecalVisible(InstanceID, bool) {}
func (NopScene) ShowPreview(*Preview)             {}
func (NopScene) HidePreview()                     {}

type NopCameraControls struct{}

func (NopCameraControls) SetRotationEnabled(bool)           {}
func (NopCameraControls) SetHorizontalRotationEnabled(bool) {}

type NopNotifier struct{}

func (NopNotifier) Notify(error) {}

package scenegraph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// The physics engine is an external collaborator reached through one
// narrow call per simulation step boundary. This file owns only the
// initialization ordering and the initialize-before-publish guarantee
// for the outbound joint descriptions.

// PhysicsInitializer rebuilds engine-side state for a model. It must
// run after the model's links exist and before its joints are used.
type PhysicsInitializer interface {
	InitModel(m *Model) error
}

// JointPublisher receives a joint description exactly once per joint,
// only after that joint finished initializing, so the message carries
// fully resolved properties.
type JointPublisher interface {
	PublishJoint(d JointDesc)
}

// JointDesc is the outbound description of an initialized joint.
type JointDesc struct {
	Name   string
	Type   string
	Parent string
	Child  string
	Pose   Pose
	Axis   mgl32.Vec3
}

// Link is a rigid body of a model.
type Link struct {
	Name string
	Pose Pose

	inited bool
}

func (l *Link) Init() {
	l.inited = true
}

func (l *Link) Initialized() bool { return l.inited }

// Joint connects two links. Its runtime properties are only resolved
// by Init.
type Joint struct {
	Name   string
	Type   string
	Parent string
	Child  string
	Pose   Pose
	Axis   mgl32.Vec3

	resolved bool
}

func (j *Joint) Init() error {
	if j.Parent == "" || j.Child == "" {
		return fmt.Errorf("joint %q: parent and child links required", j.Name)
	}
	j.resolved = true
	return nil
}

func (j *Joint) Desc() JointDesc {
	return JointDesc{
		Name:   j.Name,
		Type:   j.Type,
		Parent: j.Parent,
		Child:  j.Child,
		Pose:   j.Pose,
		Axis:   j.Axis,
	}
}

// Model is a set of links and joints, possibly nested.
type Model struct {
	Name   string
	Pose   Pose
	Links  []*Link
	Joints []*Joint
	Nested []*Model

	initialPose Pose
}

// InitialPose is the pose recorded at Init time, used for resets.
func (m *Model) InitialPose() Pose { return m.initialPose }

// Init initializes the model in the required order: bodies first,
// nested models, then the engine state, then the joints, and only then
// are the joint descriptions published. A joint failure stops
// initialization; nothing unresolved is ever published.
func (m *Model) Init(engine PhysicsInitializer, pub JointPublisher, log Logger) error {
	if log == nil {
		log = NewNopLogger()
	}
	m.initialPose = m.Pose

	for _, l := range m.Links {
		l.Init()
	}
	for _, nested := range m.Nested {
		if err := nested.Init(engine, pub, log); err != nil {
			return err
		}
	}

	// Engine state must exist before any joint is touched.
	if engine != nil {
		if err := engine.InitModel(m); err != nil {
			return fmt.Errorf("model %q: engine init: %w", m.Name, err)
		}
	}

	for _, j := range m.Joints {
		if err := j.Init(); err != nil {
			log.Errorf("init joint failed: %v", err)
			return err
		}
	}

	if pub != nil {
		for _, j := range m.Joints {
			pub.PublishJoint(j.Desc())
		}
	}
	return nil
}

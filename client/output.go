package wl

import "deedles.dev/decor/wire"

const (
	outputInterface = "wl_output"
	outputVersion   = 4
)

type OutputTransform int32

const (
	OutputTransformNormal OutputTransform = iota
	OutputTransform90
	OutputTransform180
	OutputTransform270
	OutputTransformFlipped
	OutputTransformFlipped90
	OutputTransformFlipped180
	OutputTransformFlipped270
)

type OutputMode uint32

const (
	OutputModeCurrent OutputMode = 1 << iota
	OutputModePreferred
)

type Output struct {
	Proxy

	Geometry    func(x, y, physicalWidth, physicalHeight, subpixel int32, make, model string, transform OutputTransform)
	Mode        func(flags OutputMode, width, height, refresh int32)
	Done        func()
	Scale       func(factor int32)
	Name        func(string)
	Description func(string)

	version uint32
}

func IsOutput(i Interface) bool {
	return i.Is(outputInterface, 1)
}

func BindOutput(registry *Registry, name, version uint32) *Output {
	output := Output{version: min(version, outputVersion)}
	registry.Bind(name, &output, output.version)
	return &output
}

func (out *Output) Interface() string {
	return outputInterface
}

func (out *Output) MethodName(op uint16) string {
	switch op {
	case 0:
		return "geometry"
	case 1:
		return "mode"
	case 2:
		return "done"
	case 3:
		return "scale"
	case 4:
		return "name"
	case 5:
		return "description"
	}
	return "unknown method"
}

func (out *Output) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		x, y, pw, ph, subpixel := msg.ReadInt(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt()
		make, model, transform := msg.ReadString(), msg.ReadString(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if out.Geometry != nil {
			out.Geometry(x, y, pw, ph, subpixel, make, model, OutputTransform(transform))
		}

	case 1:
		flags, w, h, refresh := msg.ReadUint(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if out.Mode != nil {
			out.Mode(OutputMode(flags), w, h, refresh)
		}

	case 2:
		if out.Done != nil {
			out.Done()
		}

	case 3:
		factor := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if out.Scale != nil {
			out.Scale(factor)
		}

	case 4, 5:
		str := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		f := out.Name
		if msg.Op() == 5 {
			f = out.Description
		}
		if f != nil {
			f(str)
		}

	default:
		return wire.UnknownOpError{Interface: outputInterface, Type: "event", Op: msg.Op()}
	}

	return nil
}

// Release destroys the output. It only forgets the output locally if
// it was bound at a version older than 3.
func (out *Output) Release() {
	if out.version >= 3 {
		out.Enqueue(wire.Request(out, 0, "release"))
	}
	out.MarkDestroyed()
}

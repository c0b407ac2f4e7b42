package bsp

import (
	"encoding/binary"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/internal/geom"
	"github.com/TAServers/source-parsers/parseerr"
)

// staticPropDictPathSize is the fixed width of a model path entry in the
// static-prop dictionary.
const staticPropDictPathSize = 128

// StaticPropDict is one entry of the static-prop model dictionary: a
// fixed-width, NUL-padded model path.
type StaticPropDict struct {
	ModelName string
}

func decodeStaticPropDict(b []byte) StaticPropDict {
	end := staticPropDictPathSize
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	return StaticPropDict{ModelName: string(b[:end])}
}

// StaticPropLeaf references one leaf a static prop is visible from.
type StaticPropLeaf struct {
	LeafIndex uint16
}

const staticPropLeafSize = 2

func decodeStaticPropLeaf(b []byte) StaticPropLeaf {
	return StaticPropLeaf{LeafIndex: binary.LittleEndian.Uint16(b[0:2])}
}

// staticPropCommon holds the fields shared by every static-prop version;
// each version-specific struct below embeds it.
type staticPropCommon struct {
	Origin           geom.Vector3
	Angles           geom.Vector3
	PropType         uint16
	FirstLeaf        uint16
	LeafCount        uint16
	Solid            uint8
	Flags            uint8
	Skin             int32
	FadeMinDist      float32
	FadeMaxDist      float32
	LightingOrigin   geom.Vector3
}

const staticPropCommonSize = 12 + 12 + 2 + 2 + 2 + 1 + 1 + 4 + 4 + 4 + 12

func decodeStaticPropCommon(b []byte) staticPropCommon {
	return staticPropCommon{
		Origin:         decodeVector(b[0:12]),
		Angles:         decodeVector(b[12:24]),
		PropType:       binary.LittleEndian.Uint16(b[24:26]),
		FirstLeaf:      binary.LittleEndian.Uint16(b[26:28]),
		LeafCount:      binary.LittleEndian.Uint16(b[28:30]),
		Solid:          b[30],
		Flags:          b[31],
		Skin:           int32(binary.LittleEndian.Uint32(b[32:36])),
		FadeMinDist:    leFloat32(b[36:40]),
		FadeMaxDist:    leFloat32(b[40:44]),
		LightingOrigin: decodeVector(b[44:56]),
	}
}

// StaticPropV4 is the version-4 static-prop layout.
type StaticPropV4 struct {
	staticPropCommon
}

const staticPropV4Size = staticPropCommonSize + 4 // forcedFadeScale

func decodeStaticPropV4(b []byte) StaticPropV4 {
	return StaticPropV4{staticPropCommon: decodeStaticPropCommon(b[:staticPropCommonSize])}
}

// StaticPropV5 adds a min/max DX level over V4.
type StaticPropV5 struct {
	staticPropCommon
	MinDXLevel uint16
	MaxDXLevel uint16
}

const staticPropV5Size = staticPropV4Size + 4

func decodeStaticPropV5(b []byte) StaticPropV5 {
	return StaticPropV5{
		staticPropCommon: decodeStaticPropCommon(b[:staticPropCommonSize]),
		MinDXLevel:       binary.LittleEndian.Uint16(b[staticPropV4Size : staticPropV4Size+2]),
		MaxDXLevel:       binary.LittleEndian.Uint16(b[staticPropV4Size+2 : staticPropV4Size+4]),
	}
}

// StaticPropV6 replaces the DX-level range with a min/max CPU and GPU
// level.
type StaticPropV6 struct {
	staticPropCommon
	MinCPULevel uint8
	MaxCPULevel uint8
	MinGPULevel uint8
	MaxGPULevel uint8
}

const staticPropV6Size = staticPropV4Size + 4

func decodeStaticPropV6(b []byte) StaticPropV6 {
	return StaticPropV6{
		staticPropCommon: decodeStaticPropCommon(b[:staticPropCommonSize]),
		MinCPULevel:      b[staticPropV4Size],
		MaxCPULevel:      b[staticPropV4Size+1],
		MinGPULevel:      b[staticPropV4Size+2],
		MaxGPULevel:      b[staticPropV4Size+3],
	}
}

// StaticPropV7Multiplayer2013 is a non-standard community variant used by
// Multiplayer-branch 2013 engine forks, adding a per-prop diffuse
// modulation colour, an X360-disable flag and a DX-level scale on top of the
// V6 layout.
type StaticPropV7Multiplayer2013 struct {
	staticPropCommon
	MinCPULevel        uint8
	MaxCPULevel        uint8
	MinGPULevel        uint8
	MaxGPULevel        uint8
	DiffuseModulation  [4]uint8
	DisableX360         uint8
	_                   [3]uint8
	ScaleDXLevel        int32
}

const staticPropV7MP2013Size = staticPropV4Size + 4 + 4 + 4 + 4

func decodeStaticPropV7MP2013(b []byte) StaticPropV7Multiplayer2013 {
	return StaticPropV7Multiplayer2013{
		staticPropCommon:  decodeStaticPropCommon(b[:staticPropCommonSize]),
		MinCPULevel:       b[staticPropV4Size],
		MaxCPULevel:       b[staticPropV4Size+1],
		MinGPULevel:       b[staticPropV4Size+2],
		MaxGPULevel:       b[staticPropV4Size+3],
		DiffuseModulation: [4]uint8{b[staticPropV4Size+4], b[staticPropV4Size+5], b[staticPropV4Size+6], b[staticPropV4Size+7]},
		DisableX360:       b[staticPropV4Size+8],
		ScaleDXLevel:      int32(binary.LittleEndian.Uint32(b[staticPropV4Size+12 : staticPropV4Size+16])),
	}
}

// StaticProps is a tagged union over the version-specific static-prop
// variant actually present in a given BSP's game lump.
type StaticProps struct {
	V4           []StaticPropV4
	V5           []StaticPropV5
	V6           []StaticPropV6
	V7MP2013     []StaticPropV7Multiplayer2013
}

func parseStaticPropLump(v byteview.View, version int32) ([]StaticPropDict, []StaticPropLeaf, StaticProps, error) {
	dictCount, err := v.Int32(0, bspTag, "static prop dictionary count")
	if err != nil {
		return nil, nil, StaticProps{}, err
	}
	dict, err := byteview.ReadArray(v, 4, int(dictCount), staticPropDictPathSize, decodeStaticPropDict, bspTag, "static prop dictionary entries")
	if err != nil {
		return nil, nil, StaticProps{}, err
	}

	leafOffset := int64(4) + int64(dictCount)*staticPropDictPathSize
	leafView, err := v.AtRelative(leafOffset, bspTag, "static prop leaf section")
	if err != nil {
		return nil, nil, StaticProps{}, err
	}
	leafCount, err := leafView.Int32(0, bspTag, "static prop leaf count")
	if err != nil {
		return nil, nil, StaticProps{}, err
	}
	leaves, err := byteview.ReadArray(leafView, 4, int(leafCount), staticPropLeafSize, decodeStaticPropLeaf, bspTag, "static prop leaves")
	if err != nil {
		return nil, nil, StaticProps{}, err
	}

	propOffset := int64(4) + int64(leafCount)*staticPropLeafSize
	propView, err := leafView.AtRelative(propOffset, bspTag, "static prop section")
	if err != nil {
		return nil, nil, StaticProps{}, err
	}
	propCount, err := propView.Int32(0, bspTag, "static prop count")
	if err != nil {
		return nil, nil, StaticProps{}, err
	}

	switch version {
	case 4:
		props, err := byteview.ReadArray(propView, 4, int(propCount), staticPropV4Size, decodeStaticPropV4, bspTag, "static props (v4)")
		return dict, leaves, StaticProps{V4: props}, err
	case 5:
		props, err := byteview.ReadArray(propView, 4, int(propCount), staticPropV5Size, decodeStaticPropV5, bspTag, "static props (v5)")
		return dict, leaves, StaticProps{V5: props}, err
	case 6:
		props, err := byteview.ReadArray(propView, 4, int(propCount), staticPropV6Size, decodeStaticPropV6, bspTag, "static props (v6)")
		return dict, leaves, StaticProps{V6: props}, err
	case 7:
		props, err := byteview.ReadArray(propView, 4, int(propCount), staticPropV7MP2013Size, decodeStaticPropV7MP2013, bspTag, "static props (v7 MP2013)")
		return dict, leaves, StaticProps{V7MP2013: props}, err
	default:
		return nil, nil, StaticProps{}, parseerr.Taggedf(parseerr.ErrUnsupportedVersion, bspTag, "unsupported static prop game lump version %d", version)
	}
}

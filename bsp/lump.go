package bsp

// Lump identifies one of the 64 typed regions of a BSP file.
type Lump int

const (
	LumpEntities Lump = iota
	LumpPlanes
	LumpTexData
	LumpVertexes
	LumpVisibility
	LumpNodes
	LumpTexInfo
	LumpFaces
	LumpLighting
	LumpOcclusion
	LumpLeafs
	LumpFaceIDs
	LumpEdges
	LumpSurfEdges
	LumpModels
	LumpWorldLights
	LumpLeafFaces
	LumpLeafBrushes
	LumpBrushes
	LumpBrushSides
	LumpAreas
	LumpAreaPortals
	LumpUnused0
	LumpUnused1
	LumpUnused2
	LumpUnused3
	LumpDispInfo
	LumpOriginalFaces
	LumpPhysDisp
	LumpPhysCollide
	LumpVertNormals
	LumpVertNormalIndices
	LumpDispLightmapAlphas
	LumpDispVerts
	LumpDispLightmapSamplePositions
	LumpGameLump
	LumpLeafWaterData
	LumpPrimitives
	LumpPrimVerts
	LumpPrimIndices
	LumpPakfile
	LumpClipPortalVerts
	LumpCubemaps
	LumpTexDataStringData
	LumpTexDataStringTable
	LumpOverlays
	LumpLeafMinDistToWater
	LumpFaceMacroTextureInfo
	LumpDispTris
	LumpPropBlob
	LumpWaterOverlays
	LumpLeafAmbientIndexHDR
	LumpLeafAmbientIndex
	LumpLightingHDR
	LumpWorldLightsHDR
	LumpLeafAmbientLightingHDR
	LumpLeafAmbientLighting
	LumpXZipPakfile
	LumpFacesHDR
	LumpMapFlags
	LumpOverlayFades
	LumpOverlaySystemLevels
	LumpPhysLevel
	LumpDispMultiblend
)

// NumLumps is the fixed-size lump table length every BSP header carries.
const NumLumps = 64

func (l Lump) String() string {
	if name, ok := lumpNames[l]; ok {
		return name
	}
	return "UnknownLump"
}

var lumpNames = map[Lump]string{
	LumpEntities:                    "Entities",
	LumpPlanes:                      "Planes",
	LumpTexData:                     "TexData",
	LumpVertexes:                    "Vertexes",
	LumpVisibility:                  "Visibility",
	LumpNodes:                       "Nodes",
	LumpTexInfo:                     "TexInfo",
	LumpFaces:                       "Faces",
	LumpLighting:                    "Lighting",
	LumpOcclusion:                   "Occlusion",
	LumpLeafs:                       "Leafs",
	LumpFaceIDs:                     "FaceIDs",
	LumpEdges:                       "Edges",
	LumpSurfEdges:                   "SurfEdges",
	LumpModels:                      "Models",
	LumpWorldLights:                 "WorldLights",
	LumpLeafFaces:                   "LeafFaces",
	LumpLeafBrushes:                 "LeafBrushes",
	LumpBrushes:                     "Brushes",
	LumpBrushSides:                  "BrushSides",
	LumpAreas:                       "Areas",
	LumpAreaPortals:                 "AreaPortals",
	LumpDispInfo:                    "DispInfo",
	LumpOriginalFaces:               "OriginalFaces",
	LumpPhysDisp:                    "PhysDisp",
	LumpPhysCollide:                 "PhysCollide",
	LumpVertNormals:                 "VertNormals",
	LumpVertNormalIndices:           "VertNormalIndices",
	LumpDispLightmapAlphas:          "DispLightmapAlphas",
	LumpDispVerts:                   "DispVerts",
	LumpDispLightmapSamplePositions: "DispLightmapSamplePositions",
	LumpGameLump:                    "GameLump",
	LumpLeafWaterData:               "LeafWaterData",
	LumpPrimitives:                  "Primitives",
	LumpPrimVerts:                   "PrimVerts",
	LumpPrimIndices:                 "PrimIndices",
	LumpPakfile:                     "Pakfile",
	LumpClipPortalVerts:             "ClipPortalVerts",
	LumpCubemaps:                    "Cubemaps",
	LumpTexDataStringData:           "TexDataStringData",
	LumpTexDataStringTable:          "TexDataStringTable",
	LumpOverlays:                    "Overlays",
	LumpDispTris:                    "DispTris",
}

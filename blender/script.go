package blender

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// Generated scripts must never steer render output; the scaffold owns the
// engine, camera, lighting and output path.
var (
	filepathRe = regexp.MustCompile(`(?m)^.*bpy\.context\.scene\.render\.filepath\s*=.*$`)
	renderRe   = regexp.MustCompile(`(?m)^.*bpy\.ops\.render\.render\(.*\).*$`)
)

// SanitizeScript strips render output control from a generated script and
// guarantees the bpy import is present. Idempotent.
func SanitizeScript(code string) string {
	code = filepathRe.ReplaceAllString(code, "")
	code = renderRe.ReplaceAllString(code, "")
	code = strings.TrimSpace(code)
	if !strings.Contains(code, "import bpy") {
		code = "import bpy\n" + code
	}
	return code
}

var scaffoldTmpl = template.Must(template.New("scaffold").Parse(`import bpy
from mathutils import Vector

scene = bpy.context.scene
try:
    scene.render.engine = 'BLENDER_EEVEE_NEXT'
except TypeError:
    scene.render.engine = 'BLENDER_EEVEE'
try:
    scene.eevee.use_gtao = True
except AttributeError:
    pass
scene.render.resolution_x = 1920
scene.render.resolution_y = 1080
scene.render.image_settings.file_format = 'PNG'
scene.render.image_settings.color_mode = 'RGBA'
scene.render.filepath = "{{.OutputPath}}"

bpy.ops.object.select_all(action='SELECT')
bpy.ops.object.delete(use_global=False, confirm=False)

# --- generated scene ---
{{.UserCode}}
# --- end generated scene ---

supported = {'MESH', 'CURVE', 'SURFACE', 'META', 'FONT', 'VOLUME'}
geom = [obj for obj in scene.objects if obj.type in supported]

center = Vector((0.0, 0.0, 0.0))
distance = 10.0
coords = []
for obj in geom:
    for corner in obj.bound_box:
        coords.append(obj.matrix_world @ Vector(corner))
if coords:
    lo = Vector((min(c.x for c in coords), min(c.y for c in coords), min(c.z for c in coords)))
    hi = Vector((max(c.x for c in coords), max(c.y for c in coords), max(c.z for c in coords)))
    center = (lo + hi) / 2
    size = max(hi.x - lo.x, hi.y - lo.y, hi.z - lo.z)
    distance = max(size * 2.5, 8.0)

camera = scene.camera
if camera is None:
    for obj in scene.objects:
        if obj.type == 'CAMERA':
            camera = obj
            break
if camera is None:
    bpy.ops.object.camera_add()
    camera = bpy.context.object
scene.camera = camera
camera.location = (center.x + distance * 0.7, center.y - distance * 0.7, center.z + distance * 0.5)
direction = center - camera.location
camera.rotation_euler = direction.to_track_quat('-Z', 'Y').to_euler()

if not any(obj.type == 'LIGHT' for obj in scene.objects):
    bpy.ops.object.light_add(type='SUN', location=(center.x + 5, center.y + 5, center.z + 10))
    bpy.context.object.data.energy = 5
    bpy.ops.object.light_add(type='POINT', location=(center.x - 3, center.y - 3, center.z + 5))
    bpy.context.object.data.energy = 100

world = scene.world
if world and world.use_nodes:
    bg = world.node_tree.nodes.get("Background")
    if bg:
        bg.inputs[0].default_value = (0.2, 0.2, 0.2, 1.0)
        bg.inputs[1].default_value = 1.0

bpy.ops.render.render(write_still=True)
`))

// BuildRenderScript sanitizes the generated code and wraps it in the render
// scaffold: EEVEE at 1920x1080 PNG RGBA, bounding-box camera framing at 2.5x
// the largest scene dimension, and default lighting when the script created
// none.
func BuildRenderScript(userCode, outputPath string) (string, error) {
	var b strings.Builder
	err := scaffoldTmpl.Execute(&b, struct {
		OutputPath string
		UserCode   string
	}{
		OutputPath: filepath.ToSlash(outputPath),
		UserCode:   SanitizeScript(userCode),
	})
	if err != nil {
		return "", fmt.Errorf("error building render script: %w", err)
	}
	return b.String(), nil
}

package desktop

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Particle vertex shader: perspective point sprites. Positions are rotated about Y by
// uRotY, then viewed from uEye looking down -Z.
const particleVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in float aSize;
layout(location = 2) in vec4 aColor;

uniform vec3 uEye;
uniform float uFocal;
uniform float uAspect;
uniform float uRotY;
uniform float uViewportH;
uniform float uAlpha;

out vec4 vColor;

void main() {
    float c = cos(uRotY);
    float s = sin(uRotY);
    vec3 p = vec3(c * aPos.x + s * aPos.z, aPos.y, -s * aPos.x + c * aPos.z);
    vec3 v = p - uEye;
    float depth = -v.z;
    if (depth <= 0.01) {
        gl_Position = vec4(2.0, 2.0, 2.0, 1.0);
        gl_PointSize = 0.0;
        vColor = vec4(0.0);
        return;
    }
    gl_Position = vec4(uFocal / uAspect * v.x, uFocal * v.y, 0.0, depth);
    gl_PointSize = max(1.0, aSize * uViewportH * 0.5 / depth);
    vColor = vec4(aColor.rgb, aColor.a * uAlpha);
}
` + "\x00"

// Particle fragment shader: round sprite with a soft edge.
const particleFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    float dist = length(gl_PointCoord - vec2(0.5)) * 2.0;
    if (dist > 1.0) discard;
    float edge = 1.0 - smoothstep(0.6, 1.0, dist);
    FragColor = vec4(vColor.rgb, vColor.a * edge);
}
` + "\x00"

// Overlay vertex shader: a unit quad scaled and placed in NDC.
const overlayVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos; // -1..1 quad vertex

uniform vec2 uCenter;
uniform vec2 uExtent;

out vec2 vLocal;

void main() {
    vLocal = aPos;
    gl_Position = vec4(uCenter + aPos * uExtent, 0.0, 1.0);
}
` + "\x00"

// Flash fragment shader: flat white at uAlpha.
const flashFragSrc = `#version 410 core

uniform float uAlpha;

in vec2 vLocal;
out vec4 FragColor;

void main() {
    FragColor = vec4(1.0, 1.0, 1.0, uAlpha);
}
` + "\x00"

// Globe fragment shader: translucent ocean disc with a brighter rim.
const globeFragSrc = `#version 410 core

uniform float uAlpha;
uniform vec3 uColor;

in vec2 vLocal;
out vec4 FragColor;

void main() {
    float r = length(vLocal);
    if (r > 1.0) discard;
    float rim = smoothstep(0.75, 1.0, r);
    float edge = 1.0 - smoothstep(0.97, 1.0, r);
    vec3 col = mix(uColor, vec3(0.45, 0.7, 1.0), rim * 0.6);
    FragColor = vec4(col, uAlpha * (0.35 + 0.4 * rim) * edge);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(buf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(buf, "\x00"))
	}
	return shader, nil
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(buf))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(buf, "\x00"))
	}
	return program, nil
}

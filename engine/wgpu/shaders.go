//go:build !nogpu

package wgpu

// Pointwise kernels share a bind layout: a 16-float uniform parameter
// block, the source frame as read-only storage and the destination as
// read-write storage, both tightly packed RGBA f32. One invocation per
// pixel. Kernels that need per-pixel neighborhoods or dynamic tables run
// on the CPU fallback instead.

const exposureShaderSource = `
struct Params { v0: vec4<f32>, v1: vec4<f32>, v2: vec4<f32>, v3: vec4<f32> }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x * 4u;
    if (i + 3u >= arrayLength(&src)) { return; }
    let gain = params.v0.x;
    dst[i] = src[i] * gain;
    dst[i + 1u] = src[i + 1u] * gain;
    dst[i + 2u] = src[i + 2u] * gain;
    dst[i + 3u] = src[i + 3u];
}
`

const contrastShaderSource = `
struct Params { v0: vec4<f32>, v1: vec4<f32>, v2: vec4<f32>, v3: vec4<f32> }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x * 4u;
    if (i + 3u >= arrayLength(&src)) { return; }
    let f = params.v0.x;
    let pivot = 0.18;
    dst[i] = (src[i] - pivot) * f + pivot;
    dst[i + 1u] = (src[i + 1u] - pivot) * f + pivot;
    dst[i + 2u] = (src[i + 2u] - pivot) * f + pivot;
    dst[i + 3u] = src[i + 3u];
}
`

const whitesShaderSource = `
struct Params { v0: vec4<f32>, v1: vec4<f32>, v2: vec4<f32>, v3: vec4<f32> }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x * 4u;
    if (i + 3u >= arrayLength(&src)) { return; }
    let s = params.v0.x;
    dst[i] = src[i] * s;
    dst[i + 1u] = src[i + 1u] * s;
    dst[i + 2u] = src[i + 2u] * s;
    dst[i + 3u] = src[i + 3u];
}
`

const blacksShaderSource = `
struct Params { v0: vec4<f32>, v1: vec4<f32>, v2: vec4<f32>, v3: vec4<f32> }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x * 4u;
    if (i + 3u >= arrayLength(&src)) { return; }
    let b = params.v0.x;
    dst[i] = src[i] - b * (1.0 - src[i]);
    dst[i + 1u] = src[i + 1u] - b * (1.0 - src[i + 1u]);
    dst[i + 2u] = src[i + 2u] - b * (1.0 - src[i + 2u]);
    dst[i + 3u] = src[i + 3u];
}
`

const whiteBalanceShaderSource = `
struct Params { v0: vec4<f32>, v1: vec4<f32>, v2: vec4<f32>, v3: vec4<f32> }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x * 4u;
    if (i + 3u >= arrayLength(&src)) { return; }
    dst[i] = src[i] * params.v0.x;
    dst[i + 1u] = src[i + 1u] * params.v0.y;
    dst[i + 2u] = src[i + 2u] * params.v0.z;
    dst[i + 3u] = src[i + 3u];
}
`

const calibrationShaderSource = `
struct Params { v0: vec4<f32>, v1: vec4<f32>, v2: vec4<f32>, v3: vec4<f32> }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x * 4u;
    if (i + 3u >= arrayLength(&src)) { return; }
    let r = src[i];
    let g = src[i + 1u];
    let b = src[i + 2u];
    dst[i] = params.v0.x * r + params.v0.y * g + params.v0.z * b;
    dst[i + 1u] = params.v1.x * r + params.v1.y * g + params.v1.z * b;
    dst[i + 2u] = params.v2.x * r + params.v2.y * g + params.v2.z * b;
    dst[i + 3u] = src[i + 3u];
}
`

// curveShaderSource reads the baked LUT from a second read-only storage
// buffer at binding 3 and interpolates linearly between entries.
const curveShaderSource = `
struct Params { v0: vec4<f32>, v1: vec4<f32>, v2: vec4<f32>, v3: vec4<f32> }
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;
@group(0) @binding(3) var<storage, read> lut: array<f32>;

fn lookup(v: f32) -> f32 {
    let n = f32(arrayLength(&lut) - 1u);
    let x = clamp(v, 0.0, 1.0) * n;
    let i = min(u32(x), arrayLength(&lut) - 2u);
    let t = x - f32(i);
    return lut[i] + (lut[i + 1u] - lut[i]) * t;
}

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x * 4u;
    if (i + 3u >= arrayLength(&src)) { return; }
    dst[i] = lookup(src[i]);
    dst[i + 1u] = lookup(src[i + 1u]);
    dst[i + 2u] = lookup(src[i + 2u]);
    dst[i + 3u] = src[i + 3u];
}
`

package simulator

// Machine catalog served to plugins. Renderers are keyed the way clients
// query them, "<renderer>-3dsmax", covering both the in-Max renderers and
// their standalone exports.

var standardInstanceTypes = []InstanceTypeInfo{
	{Label: "16 vCPUs, 32GB RAM", Code: "ZYNC_16VCPU_32GB", PricePerHour: 1.58},
	{Label: "32 vCPUs, 64GB RAM", Code: "ZYNC_32VCPU_64GB", PricePerHour: 3.16},
	{Label: "(PVM) 16 vCPUs, 32GB RAM", Code: "PREEMPTIBLE_ZYNC_16VCPU_32GB", PricePerHour: 0.48, Preemptible: true},
	{Label: "(PVM) 32 vCPUs, 64GB RAM", Code: "PREEMPTIBLE_ZYNC_32VCPU_64GB", PricePerHour: 0.95, Preemptible: true},
}

var gpuInstanceTypes = []InstanceTypeInfo{
	{Label: "16 vCPUs, 64GB RAM, 1 x T4", Code: "ZYNC_16VCPU_64GB_NVIDIA_T4", PricePerHour: 2.98},
	{Label: "(PVM) 16 vCPUs, 64GB RAM, 1 x T4", Code: "PREEMPTIBLE_ZYNC_16VCPU_64GB_NVIDIA_T4", PricePerHour: 1.12, Preemptible: true},
}

// UsageTagVrayRTGPU marks submissions rendered on the V-Ray RT CUDA engine,
// which additionally qualify for GPU machines.
const UsageTagVrayRTGPU = "3dsmax_vray_rt_gpu"

var knownRenderers = map[string]bool{
	"arnold-3dsmax":            true,
	"scanline-3dsmax":          true,
	"vray-3dsmax":              true,
	"standalone-arnold-3dsmax": true,
	"standalone-vray-3dsmax":   true,
}

// InstanceTypesFor returns the machine configurations offered for a
// renderer, false when the renderer is not catalogued.
func InstanceTypesFor(renderer, usageTag string) ([]InstanceTypeInfo, bool) {
	if !knownRenderers[renderer] {
		return nil, false
	}
	types := append([]InstanceTypeInfo(nil), standardInstanceTypes...)
	if usageTag == UsageTagVrayRTGPU {
		types = append(types, gpuInstanceTypes...)
	}
	return types, true
}

package core

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// NewVulkanShader wraps a compiled SPIR-V blob in a shader module
func NewVulkanShader(contents []byte, shaderType ShaderType, device vk.Device) (Shader, error) {
	if len(contents) == 0 || len(contents)%4 != 0 {
		return nil, fmt.Errorf("shader blob size %d is not a SPIR-V word multiple", len(contents))
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(contents)),
		PCode:    SliceUint32(contents),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &shader)); err != nil {
		return nil, errors.New("vk.CreateShaderModule(): " + err.Error())
	}

	return &VulkanShader{
		shader:     shader,
		shaderType: shaderType,
		contents:   contents,
		device:     device,
	}, nil
}

// VulkanShader is a Vulkan specific shader
type VulkanShader struct {
	Destroyable

	shaderType ShaderType
	device     vk.Device
	shader     vk.ShaderModule
	contents   []byte
}

// Type implements interface
func (v VulkanShader) Type() ShaderType {
	return v.shaderType
}

// ShaderModule is an accessor to the internal vk.ShaderModule
func (v VulkanShader) ShaderModule() interface{} {
	return v.shader
}

// Destroy implements interface
func (v VulkanShader) Destroy() {
	vk.DestroyShaderModule(v.device, v.shader, nil)
}

package core

import (
	"errors"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// NewVulkanRenderer creates a not yet initialised Vulkan API renderer.
// The instance must have a surface bound already
func NewVulkanRenderer(instance Instance, cfg Configuration) (Renderer, error) {
	if instance.Surface() == vk.NullSurface {
		return nil, errors.New("instance has no surface bound")
	}
	return &VulkanRenderer{
		configuration:     cfg.Renderer,
		minimumAPIVersion: cfg.Instance.MinimumAPIVersion,
		instance:          instance,
		surface:           instance.Surface(),
	}, nil
}

// VulkanRenderer is a Vulkan API renderer
type VulkanRenderer struct {
	Destroyable

	configuration     RendererConfiguration
	minimumAPIVersion ApiVersion

	instance Instance
	surface  vk.Surface

	adapter      *AdapterInfo
	queueIndices QueueFamilyIndices

	logicalDevice vk.Device
	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	swapchain           vk.Swapchain
	swapchainImages     []vk.Image
	swapchainImageViews []vk.ImageView
	framebuffers        []vk.Framebuffer

	imageFormat     vk.Format
	imageColorspace vk.ColorSpace
	extent          vk.Extent2D

	renderPass     vk.RenderPass
	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline

	shaders []Shader

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer

	imageAvailableSemaphore vk.Semaphore
	renderFinishedSemaphore vk.Semaphore
	inFlightFence           vk.Fence
}

// Initialise implements interface
func (v *VulkanRenderer) Initialise() error {
	adapters, err := v.instance.Adapters()
	if err != nil {
		return err
	}

	adapter, indices, err := SelectAdapter(adapters, &v.configuration, v.minimumAPIVersion)
	if err != nil {
		return err
	}
	v.adapter = adapter
	v.queueIndices = indices
	log.WithField("adapter", adapter.Name).Info("adapter selected")

	if err := v.createLogicalDevice(); err != nil {
		return err
	}
	if err := v.createSwapchain(); err != nil {
		return err
	}
	if err := v.createImageViews(); err != nil {
		return err
	}
	if err := v.createRenderPass(); err != nil {
		return err
	}
	if err := v.loadShaders(); err != nil {
		return err
	}
	if err := v.createPipelineLayout(); err != nil {
		return err
	}
	if err := v.createPipeline(); err != nil {
		return err
	}
	if err := v.createFramebuffers(); err != nil {
		return err
	}
	if err := v.createCommandPool(); err != nil {
		return err
	}
	if err := v.allocateCommandBuffer(); err != nil {
		return err
	}
	return v.createSynchronization()
}

func (v *VulkanRenderer) createLogicalDevice() error {
	queuePriorities := []float32{1.0}
	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range v.queueIndices.Unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: queuePriorities,
		})
	}

	extensions := safeStrings(v.configuration.DeviceExtensions)
	for _, optional := range v.configuration.OptionalExtensions {
		if v.adapter.HasExtension(optional) {
			extensions = append(extensions, safeString(optional))
		}
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(v.adapter.Handle(), &dci, nil, &device)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	v.logicalDevice = device

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(device, *v.queueIndices.Graphics, 0, &graphicsQueue)
	v.graphicsQueue = graphicsQueue

	var presentQueue vk.Queue
	vk.GetDeviceQueue(device, *v.queueIndices.Present, 0, &presentQueue)
	v.presentQueue = presentQueue

	return nil
}

func (v *VulkanRenderer) loadShaders() error {
	vertex, err := NewVulkanShader(v.configuration.VertexShader, VertexShaderType, v.logicalDevice)
	if err != nil {
		return err
	}
	fragment, err := NewVulkanShader(v.configuration.FragmentShader, FragmentShaderType, v.logicalDevice)
	if err != nil {
		vertex.Destroy()
		return err
	}
	v.shaders = []Shader{vertex, fragment}
	return nil
}

func (v *VulkanRenderer) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: *v.queueIndices.Graphics,
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(v.logicalDevice, &cpci, nil, &commandPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	v.commandPool = commandPool
	return nil
}

func (v *VulkanRenderer) allocateCommandBuffer() error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(v.logicalDevice, &cbai, commandBuffers)); err != nil {
		return errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	v.commandBuffer = commandBuffers[0]
	return nil
}

// createSynchronization makes the per frame primitives. The fence
// starts signaled so the first DrawFrame does not deadlock on it
func (v *VulkanRenderer) createSynchronization() error {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	var (
		imageAvailableSemaphore vk.Semaphore
		renderFinishedSemaphore vk.Semaphore
		fence                   vk.Fence
	)
	if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &imageAvailableSemaphore)); err != nil {
		return errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &renderFinishedSemaphore)); err != nil {
		return errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	if err := vk.Error(vk.CreateFence(v.logicalDevice, &fci, nil, &fence)); err != nil {
		return errors.New("vk.CreateFence(): " + err.Error())
	}

	v.imageAvailableSemaphore = imageAvailableSemaphore
	v.renderFinishedSemaphore = renderFinishedSemaphore
	v.inFlightFence = fence
	return nil
}

func (v *VulkanRenderer) recordCommandBuffer(imageIndex uint32) error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := vk.Error(vk.BeginCommandBuffer(v.commandBuffer, &cbbi)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}

	var clearValue vk.ClearValue
	clearValue.SetColor([]float32{
		v.configuration.ClearColor.X(),
		v.configuration.ClearColor.Y(),
		v.configuration.ClearColor.Z(),
		v.configuration.ClearColor.W(),
	})

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  v.renderPass,
		Framebuffer: v.framebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: v.extent,
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clearValue},
	}
	vk.CmdBeginRenderPass(v.commandBuffer, &rpbi, vk.SubpassContentsInline)
	vk.CmdBindPipeline(v.commandBuffer, vk.PipelineBindPointGraphics, v.pipeline)
	vk.CmdDraw(v.commandBuffer, 3, 1, 0, 0)
	vk.CmdEndRenderPass(v.commandBuffer)

	if err := vk.Error(vk.EndCommandBuffer(v.commandBuffer)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}
	return nil
}

// DrawFrame implements interface. A single frame is in flight at a
// time, fenced end to end
func (v *VulkanRenderer) DrawFrame() error {
	fences := []vk.Fence{v.inFlightFence}
	if err := vk.Error(vk.WaitForFences(v.logicalDevice, 1, fences, vk.True, vk.MaxUint64)); err != nil {
		return errors.New("vk.WaitForFences(): " + err.Error())
	}
	if err := vk.Error(vk.ResetFences(v.logicalDevice, 1, fences)); err != nil {
		return errors.New("vk.ResetFences(): " + err.Error())
	}

	var imageIndex uint32
	if err := vk.Error(vk.AcquireNextImage(v.logicalDevice, v.swapchain, vk.MaxUint64, v.imageAvailableSemaphore, vk.Fence(vk.NullHandle), &imageIndex)); err != nil {
		return errors.New("vk.AcquireNextImage(): " + err.Error())
	}

	if err := vk.Error(vk.ResetCommandBuffer(v.commandBuffer, 0)); err != nil {
		return errors.New("vk.ResetCommandBuffer(): " + err.Error())
	}
	if err := v.recordCommandBuffer(imageIndex); err != nil {
		return err
	}

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.imageAvailableSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{v.commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{v.renderFinishedSemaphore},
	}}
	if err := vk.Error(vk.QueueSubmit(v.graphicsQueue, 1, submit, v.inFlightFence)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.renderFinishedSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	if err := vk.Error(vk.QueuePresent(v.presentQueue, &presentInfo)); err != nil {
		return errors.New("vk.QueuePresent(): " + err.Error())
	}
	return nil
}

// Destroy implements interface
func (v *VulkanRenderer) Destroy() {
	vk.DeviceWaitIdle(v.logicalDevice)

	vk.DestroySemaphore(v.logicalDevice, v.imageAvailableSemaphore, nil)
	vk.DestroySemaphore(v.logicalDevice, v.renderFinishedSemaphore, nil)
	vk.DestroyFence(v.logicalDevice, v.inFlightFence, nil)

	vk.DestroyCommandPool(v.logicalDevice, v.commandPool, nil)

	for _, framebuffer := range v.framebuffers {
		vk.DestroyFramebuffer(v.logicalDevice, framebuffer, nil)
	}

	vk.DestroyPipeline(v.logicalDevice, v.pipeline, nil)
	vk.DestroyPipelineLayout(v.logicalDevice, v.pipelineLayout, nil)
	vk.DestroyRenderPass(v.logicalDevice, v.renderPass, nil)

	for _, imageView := range v.swapchainImageViews {
		vk.DestroyImageView(v.logicalDevice, imageView, nil)
	}

	vk.DestroySwapchain(v.logicalDevice, v.swapchain, nil)
	vk.DestroyDevice(v.logicalDevice, nil)
}

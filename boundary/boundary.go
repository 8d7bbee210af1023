// Package boundary exposes the host ABI entry point and plugin
// factory, per spec.md §4.10: glue only, delegating every real decision
// to package registry. The concrete C plugin ABI (the struct layouts a
// real DAW host dereferences) is the out-of-scope external collaborator
// named in spec.md §1 ("the host's plugin ABI, taken as a fixed C
// interface we adapt"); this file declares only the minimal subset of
// that interface the entry/factory symbols actually touch, the same
// scope original_source/include/clap-rci/entry.h covers.
package boundary

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

typedef struct clap_plugin_descriptor_min {
	const char *id;
	const char *name;
	const char *vendor;
} clap_plugin_descriptor_min;

typedef struct clap_host_min {
	void *host_data;
} clap_host_min;

typedef struct clap_plugin_min {
	const clap_plugin_descriptor_min *desc;
	void *plugin_data;
} clap_plugin_min;

typedef struct clap_plugin_factory_min {
	uint32_t (*get_plugin_count)(const struct clap_plugin_factory_min *factory);
	const clap_plugin_descriptor_min *(*get_plugin_descriptor)(const struct clap_plugin_factory_min *factory, uint32_t index);
	const clap_plugin_min *(*create_plugin)(const struct clap_plugin_factory_min *factory, const clap_host_min *host, const char *id);
} clap_plugin_factory_min;

typedef struct clap_plugin_entry_min {
	uint32_t clap_version_major;
	uint32_t clap_version_minor;
	uint32_t clap_version_revision;
	bool (*init)(const char *plugin_path);
	void (*deinit)(void);
	const void *(*get_factory)(const char *factory_id);
} clap_plugin_entry_min;

extern uint32_t goGetPluginCount(void);
extern const clap_plugin_descriptor_min *goGetPluginDescriptor(uint32_t index);
extern const clap_plugin_min *goCreatePlugin(const clap_host_min *host, const char *id);
extern bool goEntryInit(const char *path);
extern void goEntryDeinit(void);

static uint32_t factory_get_plugin_count(const clap_plugin_factory_min *factory) {
	return goGetPluginCount();
}

static const clap_plugin_descriptor_min *factory_get_plugin_descriptor(const clap_plugin_factory_min *factory, uint32_t index) {
	return goGetPluginDescriptor(index);
}

static const clap_plugin_min *factory_create_plugin(const clap_plugin_factory_min *factory, const clap_host_min *host, const char *id) {
	return goCreatePlugin(host, id);
}

static const clap_plugin_factory_min pluginFactory = {
	.get_plugin_count = factory_get_plugin_count,
	.get_plugin_descriptor = factory_get_plugin_descriptor,
	.create_plugin = factory_create_plugin,
};

static const char *kPluginFactoryID = "clap.plugin-factory";

static const void *entry_get_factory(const char *factory_id) {
	if (strcmp(factory_id, kPluginFactoryID) == 0) {
		return &pluginFactory;
	}
	return 0;
}

const clap_plugin_entry_min clap_entry = {
	.clap_version_major = 1,
	.clap_version_minor = 2,
	.clap_version_revision = 2,
	.init = goEntryInit,
	.deinit = goEntryDeinit,
	.get_factory = entry_get_factory,
};
*/
import "C"

import (
	"unsafe"

	"github.com/deeedob/clap-rci/coreplugin"
	"github.com/deeedob/clap-rci/registry"
)

// descriptorCache keeps the C-visible descriptor structs (and the C
// strings they point to) alive for the process lifetime; the clap ABI
// requires get_plugin_descriptor results to remain valid indefinitely.
var descriptorCache = map[int]*C.clap_plugin_descriptor_min{}

//export goEntryInit
func goEntryInit(path *C.char) C.bool {
	ok := registry.Default().Init(C.GoString(path))
	return C.bool(ok)
}

//export goEntryDeinit
func goEntryDeinit() {
	registry.Default().Deinit()
}

//export goGetPluginCount
func goGetPluginCount() C.uint32_t {
	return C.uint32_t(registry.Default().EntrySize())
}

//export goGetPluginDescriptor
func goGetPluginDescriptor(index C.uint32_t) *C.clap_plugin_descriptor_min {
	i := int(index)
	if cached, ok := descriptorCache[i]; ok {
		return cached
	}

	d, ok := registry.Default().FindDescriptorByIndex(i)
	if !ok {
		return nil
	}

	cd := (*C.clap_plugin_descriptor_min)(C.malloc(C.size_t(unsafe.Sizeof(C.clap_plugin_descriptor_min{}))))
	cd.id = C.CString(d.ID())
	cd.name = C.CString(d.Name())
	cd.vendor = C.CString(d.Vendor())
	descriptorCache[i] = cd
	return cd
}

//export goCreatePlugin
func goCreatePlugin(host *C.clap_host_min, id *C.char) *C.clap_plugin_min {
	kindID := C.GoString(id)
	inst, err := registry.Default().Create(unsafe.Pointer(host), kindID)
	if err != nil {
		return nil
	}

	plugin, ok := inst.(*coreplugin.CorePlugin)
	if !ok {
		return nil
	}
	registry.Default().Instances().Emplace(kindID, plugin)

	cp := (*C.clap_plugin_min)(C.malloc(C.size_t(unsafe.Sizeof(C.clap_plugin_min{}))))
	cp.desc = goGetPluginDescriptor(C.uint32_t(indexOfKind(kindID)))
	cp.plugin_data = unsafe.Pointer(plugin)
	return cp
}

func indexOfKind(kindID string) int {
	for i := 0; ; i++ {
		d, ok := registry.Default().FindDescriptorByIndex(i)
		if !ok {
			return -1
		}
		if d.ID() == kindID {
			return i
		}
	}
}

// Package jshost implements host.Host on a goja JavaScript runtime. The
// runtime exposes browser-like location and history globals, so scripts
// run through Run mutate navigation state the way page code does: by
// assigning location.pathname or calling history.pushState.
package jshost

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/hazyhaar/navwatch/host"
	"github.com/hazyhaar/navwatch/nav"
)

const bootstrap = `
var window = this;
var location = { pathname: "/", search: "" };

function __navwatchDotSegments(path) {
	var segs = path.split("/");
	var out = [];
	for (var i = 0; i < segs.length; i++) {
		var seg = segs[i];
		var last = i === segs.length - 1;
		if (seg === "." || seg === "..") {
			if (seg === ".." && out.length > 1) {
				out.pop();
			}
			if (last) {
				out.push("");
			}
			continue;
		}
		out.push(seg);
	}
	var joined = out.join("/");
	return joined.charAt(0) === "/" ? joined : "/" + joined;
}

function __navwatchApplyURL(url) {
	if (url === undefined || url === null) {
		return;
	}
	var path = String(url);
	var hash = path.indexOf("#");
	if (hash >= 0) {
		path = path.slice(0, hash);
	}
	if (path === "") {
		return;
	}
	var origin = /^([a-zA-Z][a-zA-Z0-9+.-]*:)?\/\/[^\/?]*/.exec(path);
	if (origin) {
		path = path.slice(origin[0].length);
		if (path === "" || path.charAt(0) === "?") {
			path = "/" + path;
		}
	}
	var q = path.indexOf("?");
	var pathname = q >= 0 ? path.slice(0, q) : path;
	var search = q >= 0 ? path.slice(q) : "";
	if (pathname === "") {
		pathname = location.pathname;
	} else if (pathname.charAt(0) !== "/") {
		var cur = location.pathname;
		pathname = cur.slice(0, cur.lastIndexOf("/") + 1) + pathname;
	}
	location.pathname = __navwatchDotSegments(pathname);
	location.search = search === "?" ? "" : search;
}

var history = {
	state: null,
	length: 1,
	pushState: function (state, title, url) {
		__navwatchApplyURL(url);
		this.state = state === undefined ? null : state;
		this.length++;
	},
	replaceState: function (state, title, url) {
		__navwatchApplyURL(url);
		this.state = state === undefined ? null : state;
	}
};

function __navwatchWrite(method, stateJSON, title, url) {
	history[method](JSON.parse(stateJSON), title, url);
}
`

// Host is a goja runtime holding navigation state. goja runtimes are not
// goroutine-safe; every access goes through mu.
type Host struct {
	mu    sync.Mutex
	vm    *goja.Runtime
	write goja.Callable
}

// New creates a runtime positioned at loc with the given initial state.
// state must be JSON-encodable.
func New(loc nav.Location, state any) (*Host, error) {
	vm := goja.New()
	if _, err := vm.RunString(bootstrap); err != nil {
		return nil, fmt.Errorf("jshost: bootstrap: %w", err)
	}
	write, ok := goja.AssertFunction(vm.Get("__navwatchWrite"))
	if !ok {
		return nil, fmt.Errorf("jshost: bootstrap did not define __navwatchWrite")
	}

	h := &Host{vm: vm, write: write}
	if err := h.call("replaceState", state, "", loc.String()); err != nil {
		return nil, err
	}
	return h, nil
}

// Run executes src in the runtime. Cancelling ctx interrupts the script.
func (h *Host) Run(ctx context.Context, src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.vm.ClearInterrupt()
	stop := context.AfterFunc(ctx, func() { h.vm.Interrupt(ctx.Err()) })
	defer func() {
		stop()
		h.vm.ClearInterrupt()
	}()

	if _, err := h.vm.RunString(src); err != nil {
		return fmt.Errorf("jshost: run: %w", err)
	}
	return nil
}

// Read exports location.pathname, location.search and history.state.
// Objects and arrays are exported as fresh map[string]any / []any values.
func (h *Host) Read(_ context.Context) (host.Reading, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	loc := h.vm.Get("location")
	hist := h.vm.Get("history")
	if isNullish(loc) || isNullish(hist) {
		return host.Reading{}, fmt.Errorf("jshost: location or history is not defined")
	}
	locObj := loc.ToObject(h.vm)
	histObj := hist.ToObject(h.vm)

	return host.Reading{
		Location: nav.Location{
			Pathname: stringProp(locObj, "pathname"),
			Search:   stringProp(locObj, "search"),
		},
		State: histObj.Get("state").Export(),
	}, nil
}

// PushState calls history.pushState inside the runtime. The state crosses
// into JS as JSON so scripts never alias Go values.
func (h *Host) PushState(_ context.Context, state any, title, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callLocked("pushState", state, title, path)
}

func (h *Host) call(method string, state any, title, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callLocked(method, state, title, path)
}

func (h *Host) callLocked(method string, state any, title, path string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("jshost: encode state: %w", err)
	}
	_, err = h.write(goja.Undefined(),
		h.vm.ToValue(method),
		h.vm.ToValue(string(data)),
		h.vm.ToValue(title),
		h.vm.ToValue(path))
	if err != nil {
		return fmt.Errorf("jshost: %s: %w", method, err)
	}
	return nil
}

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

func stringProp(o *goja.Object, name string) string {
	v := o.Get(name)
	if isNullish(v) {
		return ""
	}
	return v.String()
}

package modules

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fasthttp/router"

	"github.com/ruizlenato/tunefetch/internal/modules/lists"
	"github.com/ruizlenato/tunefetch/internal/modules/songs"
)

// Services are the dependencies shared by the route modules.
type Services struct {
	Resolver   songs.Resolver
	Relay      songs.Opener
	Downloader songs.Downloader
	Trending   lists.Trending
}

var packageLoadersMutex sync.Mutex

// Load registers the routes of every module on r and returns the names of
// the loaded modules.
func Load(r *router.Router, services Services) []string {
	packageLoaders := map[string]func(*router.Router){
		"lists": lists.New(services.Trending).Load,
		"songs": songs.New(services.Resolver, services.Relay, services.Downloader).Load,
	}

	var wg sync.WaitGroup
	done := make(chan struct{}, len(packageLoaders))
	moduleNames := make([]string, 0, len(packageLoaders))

	for name, loadFunc := range packageLoaders {
		wg.Add(1)

		go func(name string, loadFunc func(*router.Router)) {
			defer wg.Done()

			packageLoadersMutex.Lock()
			defer packageLoadersMutex.Unlock()

			loadFunc(r)

			done <- struct{}{}
			moduleNames = append(moduleNames, name)
		}(name, loadFunc)
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	for range done {
	}

	slices.Sort(moduleNames)
	fmt.Printf("\033[0;35mModules Loaded:\033[0m %s\n", strings.Join(moduleNames, ", "))
	return moduleNames
}

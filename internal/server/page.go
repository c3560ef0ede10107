package server

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>topicmap{{if .Header}} · {{.Header}}{{end}}</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }

    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      flex-direction: column;
      align-items: center;
      min-height: 100vh;
      padding: 1rem;
      transition: background-color 0.3s, color 0.3s;
    }

    /* Light mode (default) */
    body {
      background-color: #f8f9fa;
      color: #212529;
    }

    /* Dark mode */
    @media (prefers-color-scheme: dark) {
      body {
        background-color: #1a1a2e;
        color: #e0e0e0;
      }
      .controls button {
        background-color: #2d2d44;
        color: #e0e0e0;
        border-color: #444;
      }
      .controls button:hover {
        background-color: #3d3d5c;
      }
      #map-container {
        background-color: #16213e;
        border-color: #444;
      }
    }

    h1 {
      margin: 1rem 0;
      font-size: 1.4rem;
      font-weight: 600;
    }

    .controls {
      display: flex;
      gap: 0.5rem;
      margin-bottom: 1rem;
      flex-wrap: wrap;
      justify-content: center;
      align-items: center;
    }

    .controls label {
      padding: 0.3rem 0.6rem;
      border: 1px solid #ccc;
      border-radius: 6px;
      font-size: 0.9rem;
      cursor: pointer;
    }

    .controls button {
      padding: 0.4rem 0.9rem;
      font-size: 0.9rem;
      border: 1px solid #ccc;
      border-radius: 6px;
      background-color: #ffffff;
      cursor: pointer;
    }

    .controls button:hover {
      background-color: #e9ecef;
    }

    .notice {
      margin-bottom: 1rem;
      color: #b8860b;
    }

    .summary {
      margin-bottom: 0.5rem;
      font-size: 0.85rem;
      opacity: 0.7;
    }

    #map-container {
      width: 100%;
      max-width: 1400px;
      overflow: auto;
      border: 1px solid #dee2e6;
      border-radius: 8px;
      background-color: #ffffff;
      padding: 1rem;
      display: flex;
      justify-content: center;
    }

    #map-container svg {
      max-width: 100%;
      height: auto;
    }
  </style>
</head>
<body>
  <h1>topicmap</h1>

  <form class="controls" method="post" action="/selection">
    {{range .Topics}}<label><input type="checkbox" name="topic" value="{{.Name}}"{{if .Checked}} checked{{end}}> {{.Name}}</label>
    {{end}}<button type="submit">Show map</button>
  </form>
  {{if .TopicError}}<p class="notice">{{.TopicError}}</p>{{end}}

  {{if .Header}}<p class="summary">{{.Header}} · {{.Satellites}} items</p>{{end}}
  <div id="map-container" data-view="{{.ViewID}}">
    {{.SVG}}
  </div>
</body>
</html>
`
